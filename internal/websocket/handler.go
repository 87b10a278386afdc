package websocket

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"tripcrew/internal/middleware"
	"tripcrew/pkg/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket authenticates /ws?userId=&token= and upgrades the connection
func HandleWebSocket(hub *Hub, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			tokenString = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if tokenString == "" {
			log.Println("❌ No token for WebSocket connection")
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims, err := middleware.ParseToken(jwtSecret, tokenString)
		if err != nil {
			log.Printf("❌ Invalid token in query parameter: %v", err)
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if raw := r.URL.Query().Get("userId"); raw != "" {
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || userID != claims.UserID {
				log.Printf("❌ userId %q does not match token user %d", raw, claims.UserID)
				utils.RespondError(w, http.StatusForbidden, "userId does not match token")
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(claims.UserID, conn, hub)

		select {
		case hub.register <- client:
		case <-hub.stop:
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()

		log.Printf("✅ WebSocket connection established for user: %s (%d)", claims.Email, claims.UserID)
	}
}
