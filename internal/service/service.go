package service

import (
	"github.com/ndenisov/groupgate/internal/service/cartservice"
	"github.com/ndenisov/groupgate/internal/service/guardservice"
	"github.com/ndenisov/groupgate/internal/service/orderservice"
	"github.com/ndenisov/groupgate/internal/service/subservice"
	"github.com/ndenisov/groupgate/internal/state"
)

type Services struct {
	CartService  *cartservice.Service
	OrderService *orderservice.Service
	SubService   *subservice.Service
	GuardService *guardservice.Service
}

func New(st *state.Manager, orderPrefix string) *Services {
	return &Services{
		CartService:  cartservice.New(st),
		OrderService: orderservice.New(st, orderPrefix),
		SubService:   subservice.New(st),
		GuardService: guardservice.New(st),
	}
}
