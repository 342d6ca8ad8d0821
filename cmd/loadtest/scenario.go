package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	grpcsvc "github.com/vladislavdragonenkov/furnicart/internal/service/grpc"
)

// cartClient: методы CartService, которые использует нагрузочный тест.
type cartClient interface {
	OpenSession(ctx context.Context, req *grpcsvc.SessionRequest, opts ...grpc.CallOption) (*grpcsvc.CartReply, error)
	CloseSession(ctx context.Context, req *grpcsvc.SessionRequest, opts ...grpc.CallOption) (*grpcsvc.CloseSessionReply, error)
	AddItem(ctx context.Context, req *grpcsvc.AddItemRequest, opts ...grpc.CallOption) (*grpcsvc.CartReply, error)
	UpdateQuantity(ctx context.Context, req *grpcsvc.UpdateQuantityRequest, opts ...grpc.CallOption) (*grpcsvc.CartReply, error)
	RemoveItem(ctx context.Context, req *grpcsvc.RemoveItemRequest, opts ...grpc.CallOption) (*grpcsvc.CartReply, error)
	Checkout(ctx context.Context, req *grpcsvc.CheckoutRequest, opts ...grpc.CallOption) (*grpcsvc.CheckoutReply, error)
}

var _ cartClient = (*grpcsvc.Client)(nil)

type product struct {
	name  string
	price string
	image string
}

// catalog: товары витрины.
var catalog = []product{
	{name: "Nordic Chair", price: "$50.00", image: "images/product-1.png"},
	{name: "Kruzo Aero Chair", price: "$78.00", image: "images/product-2.png"},
	{name: "Ergonomic Chair", price: "$43.00", image: "images/product-3.png"},
}

// checkoutFields: заполненная форма оформления.
var checkoutFields = map[string]string{
	"c_fname":         "Load",
	"c_lname":         "Test",
	"c_address":       "1 Benchmark Way",
	"c_state_country": "Test State",
	"c_postal_zip":    "00000",
	"c_email_address": "load@example.com",
	"c_phone":         "+10000000000",
	"c_country":       "usa",
}

var errCheckoutRejected = errors.New("checkout was rejected")

type scenario struct {
	client cartClient
	cfg    config
	runID  string
	col    *collector
}

// run выполняет один сценарий; результат сценария записывается под именем "scenario".
func (s scenario) run(index int) (err error) {
	started := time.Now()
	defer func() {
		s.col.record(scenarioMethod, time.Since(started), grpcCode(err))
	}()

	sessionID := fmt.Sprintf("%s-%s-%d", s.cfg.sessionTag, s.runID, index)
	if err := s.call("OpenSession", func(ctx context.Context) error {
		_, err := s.client.OpenSession(ctx, &grpcsvc.SessionRequest{SessionID: sessionID})
		return err
	}); err != nil {
		return err
	}
	defer func() {
		_ = s.call("CloseSession", func(ctx context.Context) error {
			_, err := s.client.CloseSession(ctx, &grpcsvc.SessionRequest{SessionID: sessionID})
			return err
		})
	}()

	for i := 0; i < s.cfg.items; i++ {
		p := catalog[(index+i)%len(catalog)]
		if err := s.call("AddItem", func(ctx context.Context) error {
			_, err := s.client.AddItem(ctx, &grpcsvc.AddItemRequest{
				SessionID: sessionID,
				Name:      p.name,
				Price:     p.price,
				Image:     p.image,
			})
			return err
		}); err != nil {
			return err
		}
	}

	switch s.cfg.mode {
	case modeEdit:
		return s.edit(sessionID)
	case modeCheckout:
		return s.checkout(sessionID)
	default:
		return nil
	}
}

// edit увеличивает и уменьшает количество первой позиции, затем удаляет её.
func (s scenario) edit(sessionID string) error {
	for _, delta := range []int{1, -1} {
		if err := s.call("UpdateQuantity", func(ctx context.Context) error {
			_, err := s.client.UpdateQuantity(ctx, &grpcsvc.UpdateQuantityRequest{SessionID: sessionID, Index: 0, Delta: delta})
			return err
		}); err != nil {
			return err
		}
	}
	return s.call("RemoveItem", func(ctx context.Context) error {
		_, err := s.client.RemoveItem(ctx, &grpcsvc.RemoveItemRequest{SessionID: sessionID, Index: 0})
		return err
	})
}

func (s scenario) checkout(sessionID string) error {
	return s.call("Checkout", func(ctx context.Context) error {
		reply, err := s.client.Checkout(ctx, &grpcsvc.CheckoutRequest{SessionID: sessionID, Fields: checkoutFields})
		if err != nil {
			return err
		}
		if !reply.Accepted {
			return status.Error(codes.FailedPrecondition, errCheckoutRejected.Error()+": "+reply.Message)
		}
		return nil
	})
}

// call выполняет RPC с таймаутом и записывает его латентность.
func (s scenario) call(method string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	s.col.record(method, time.Since(start), grpcCode(err))
	return err
}

func grpcCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	return status.Code(err)
}
