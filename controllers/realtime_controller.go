package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"stylefit/services"
)

type RealtimeController struct {
	RT       *services.RealtimeHub
	Sessions *services.SessionService
}

func NewRealtimeController(rt *services.RealtimeHub, svc *services.SessionService) *RealtimeController {
	return &RealtimeController{RT: rt, Sessions: svc}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const pingEvery = 25 * time.Second

// Events streams loading stages and step changes for one session.
func (rc *RealtimeController) Events(c *gin.Context) {
	id := c.Param("id")
	st, err := rc.Sessions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &services.WSClient{SessionID: id, Conn: conn}
	rc.RT.Register(cl)

	// late subscribers get the current view first
	_ = cl.Send(gin.H{"kind": "hello", "view": st.View, "loading": st.Session.Loading})

	done := make(chan struct{})
	go func() {
		t := time.NewTicker(pingEvery)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := cl.Ping(); err != nil {
					rc.RT.Unregister(cl)
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			close(done)
			rc.RT.Unregister(cl)
			return
		}
	}
}
