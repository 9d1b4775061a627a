package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core/chat"
)

type chatApi struct {
	svc *chat.Service
}

func registerChatAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *chat.Service) {
	api := chatApi{svc: svc}

	g.POST("/chat", api.reply, jwt)
}

func (api *chatApi) reply(ctx echo.Context) error {
	var data chat.Request
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to chat.Request")
	}

	res, err := api.svc.Reply(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "replying to chat")
	}
	return ctx.JSON(http.StatusOK, res)
}
