// Package chat backs the AI sidebar of the admin UI. It is stateless: the
// client sends the whole conversation on every request.
package chat

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core"
)

type Request struct {
	Messages []core.ChatMessage `json:"messages" validate:"required,min=1"`
}

type Response struct {
	Reply string `json:"reply"`
}

type Service struct {
	docAI    core.DocAI
	validate *validator.Validate
}

func NewService(docAI core.DocAI, validate *validator.Validate) *Service {
	return &Service{docAI: docAI, validate: validate}
}

func (svc *Service) Reply(ctx context.Context, req Request) (Response, error) {
	if err := svc.validate.Struct(req); err != nil {
		return Response{}, err
	}
	reply, err := svc.docAI.Chat(ctx, req.Messages)
	if err != nil {
		return Response{}, errors.Wrap(err, "generating chat reply")
	}
	return Response{Reply: reply}, nil
}
