package main

import (
	"context"
	"testing"
	"time"
)

func TestSimulatedGatewayCharge(t *testing.T) {
	gateway := NewSimulatedGateway(PaymentSettings{PriceCents: 2000, ProcessingDelayMS: 0})

	receipt, err := gateway.Charge(context.Background(), 2000, PaymentMethodPix)
	if err != nil {
		t.Fatalf("Charge failed: %v", err)
	}

	if receipt.ID == "" {
		t.Error("Expected a receipt ID")
	}
	if receipt.AmountCents != 2000 {
		t.Errorf("Expected amount 2000, got %d", receipt.AmountCents)
	}
	if receipt.Method != PaymentMethodPix {
		t.Errorf("Expected method pix, got '%s'", receipt.Method)
	}
	if receipt.PaidAt.IsZero() {
		t.Error("Expected a payment timestamp")
	}
}

func TestSimulatedGatewayCardMethod(t *testing.T) {
	gateway := NewSimulatedGateway(PaymentSettings{ProcessingDelayMS: 0})

	receipt, err := gateway.Charge(context.Background(), 2000, PaymentMethodCard)
	if err != nil {
		t.Fatalf("Charge failed: %v", err)
	}
	if receipt.Method != PaymentMethodCard {
		t.Errorf("Expected method card, got '%s'", receipt.Method)
	}
}

func TestSimulatedGatewayUnsupportedMethod(t *testing.T) {
	gateway := NewSimulatedGateway(PaymentSettings{ProcessingDelayMS: 0})

	_, err := gateway.Charge(context.Background(), 2000, "boleto")
	if err == nil {
		t.Fatal("Expected an error for an unsupported method")
	}
	if _, ok := err.(*PaymentError); !ok {
		t.Errorf("Expected a PaymentError, got %T", err)
	}
}

func TestSimulatedGatewayInvalidAmount(t *testing.T) {
	gateway := NewSimulatedGateway(PaymentSettings{ProcessingDelayMS: 0})

	for _, amount := range []int64{0, -100} {
		_, err := gateway.Charge(context.Background(), amount, PaymentMethodPix)
		if err == nil {
			t.Errorf("Expected an error for amount %d", amount)
		}
		if _, ok := err.(*PaymentError); !ok {
			t.Errorf("Expected a PaymentError for amount %d, got %T", amount, err)
		}
	}
}

func TestSimulatedGatewayProcessingDelay(t *testing.T) {
	gateway := NewSimulatedGateway(PaymentSettings{ProcessingDelayMS: 50})

	start := time.Now()
	_, err := gateway.Charge(context.Background(), 2000, PaymentMethodPix)
	if err != nil {
		t.Fatalf("Charge failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Expected at least 50ms processing delay, took %v", elapsed)
	}
}
