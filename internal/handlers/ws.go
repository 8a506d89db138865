package handlers

import (
	"log"
	"net/http"

	"github.com/Juramirezlop/asamblea-voting-app/internal/models"
	"github.com/Juramirezlop/asamblea-voting-app/internal/services"
	"github.com/Juramirezlop/asamblea-voting-app/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub         *ws.Hub
	authService *services.AuthService
}

func NewWSHandler(hub *ws.Hub, authService *services.AuthService) *WSHandler {
	return &WSHandler{hub: hub, authService: authService}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsToken pulls the bearer token from the query string, where browser
// WebSocket clients have to put it, falling back to the header.
func wsToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	if token, ok := bearerTokenHeader(c); ok {
		return token
	}
	return ""
}

func bearerTokenHeader(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):], true
	}
	return "", false
}

// HandleAdminWS godoc
// @Summary      Admin live event stream
// @Description  WebSocket stream of attendance, vote and question events for dashboards
// @Tags         websocket
// @Param        token query string true "JWT token"
// @Router       /ws/admin [get]
func (h *WSHandler) HandleAdminWS(c *gin.Context) {
	claims, err := h.authService.ValidateToken(wsToken(c))
	if err != nil || claims.Role != models.RoleAdmin {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "admin token required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	h.hub.AddAdmin(conn)
	defer h.hub.RemoveAdmin(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// HandleVoterWS godoc
// @Summary      Voter live event stream
// @Description  WebSocket stream of question and confirmation events for one voter
// @Tags         websocket
// @Param        code path string true "Participant code"
// @Param        token query string true "JWT token"
// @Router       /ws/voter/{code} [get]
func (h *WSHandler) HandleVoterWS(c *gin.Context) {
	claims, err := h.authService.ValidateToken(wsToken(c))
	if err != nil || claims.Role != models.RoleVoter {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "voter token required"})
		return
	}

	code := c.Param("code")
	if code != claims.Subject {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "token does not match participant code"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	h.hub.AddVoter(code, conn)
	defer h.hub.RemoveVoter(code, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
