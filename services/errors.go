package services

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderCancelled    = errors.New("order is cancelled and can no longer be modified")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrComboCycle        = errors.New("combo composition contains a cycle")
	ErrNoBusinessLink    = errors.New("device is not linked to a business account")
	ErrInvalidPIN        = errors.New("invalid staff PIN")
)
