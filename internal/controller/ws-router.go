package controller

import (
	"github.com/tiger020517/youtube-watch/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsRequestIdWSMw())
	mux.Use(c.loggerWSMw())

	wsrouter.Handle(mux, "ALIVE", c.handleAlive)

	// player
	wsrouter.Handle(mux, "UPDATE_PLAYER", c.handleUpdatePlayer)

	// chat
	wsrouter.Handle(mux, "SEND_MESSAGE", c.handleSendMessage)

	return mux
}
