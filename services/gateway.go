package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"sync"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"cleaning-service-server/config"
	"cleaning-service-server/models"
)

// Gateway-normalized transaction statuses
const (
	GatewayStatusSuccess = "success"
	GatewayStatusPending = "pending"
	GatewayStatusFailed  = "failed"
)

// CheckoutSession is what the client needs to hand off to the gateway's
// hosted payment page.
type CheckoutSession struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// VerifyResult is the normalized outcome of a gateway verify call.
type VerifyResult struct {
	Status        string
	AmountMinor   int64
	Currency      string
	TransactionID string
	Message       string
	RawPayload    []byte
}

// PaymentGateway abstracts the payment provider so handlers and tests never
// talk to the provider SDK directly.
type PaymentGateway interface {
	// Initialize opens a checkout session for the payment's reference/amount.
	Initialize(payment *models.Payment, booking *models.Booking, customerName, customerEmail string) (*CheckoutSession, error)
	// Verify fetches the transaction state for a reference.
	Verify(reference string) (*VerifyResult, error)
}

// NewPaymentGateway returns the configured gateway implementation: the mock
// under the dev/test flag, the real provider otherwise.
func NewPaymentGateway() PaymentGateway {
	if config.AppConfig.Payment.UseMock {
		log.Println("⚠️  Payment gateway running in MOCK mode")
		return NewMockGateway()
	}
	return newMidtransGateway(config.AppConfig.Payment.ServerKey)
}

// --- Midtrans implementation ---

type midtransGateway struct {
	snapClient snap.Client
	coreClient coreapi.Client
}

func newMidtransGateway(serverKey string) *midtransGateway {
	g := &midtransGateway{}
	g.snapClient.New(serverKey, midtrans.Sandbox)
	g.coreClient.New(serverKey, midtrans.Sandbox)
	return g
}

func (g *midtransGateway) Initialize(payment *models.Payment, booking *models.Booking, customerName, customerEmail string) (*CheckoutSession, error) {
	// The provider charges whole currency units. Normalize the payment to
	// the amount actually charged so the verify comparison is exact.
	grossMajor := toMajorUnits(payment.AmountMinor)
	payment.AmountMinor = grossMajor * 100

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  payment.Reference,
			GrossAmt: grossMajor,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customerName,
			Email: customerEmail,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    fmt.Sprintf("BOOKING-%d", booking.ID),
				Name:  "Cleaning service booking",
				Price: grossMajor,
				Qty:   1,
			},
		},
	}

	resp, errSnap := g.snapClient.CreateTransaction(req)
	if errSnap != nil {
		return nil, fmt.Errorf("gateway initialize: %s", errSnap.GetMessage())
	}

	return &CheckoutSession{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func (g *midtransGateway) Verify(reference string) (*VerifyResult, error) {
	resp, errCheck := g.coreClient.CheckTransaction(reference)
	if errCheck != nil {
		return nil, fmt.Errorf("gateway verify: %s", errCheck.GetMessage())
	}

	raw, _ := json.Marshal(resp)

	result := &VerifyResult{
		Status:        mapMidtransStatus(resp.TransactionStatus, resp.FraudStatus),
		AmountMinor:   parseGrossAmount(resp.GrossAmount),
		Currency:      resp.Currency,
		TransactionID: resp.TransactionID,
		Message:       resp.StatusMessage,
		RawPayload:    raw,
	}
	return result, nil
}

// mapMidtransStatus normalizes the provider's transaction/fraud status pair
func mapMidtransStatus(transactionStatus, fraudStatus string) string {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "accept" {
			return GatewayStatusSuccess
		}
		return GatewayStatusPending
	case "settlement":
		return GatewayStatusSuccess
	case "pending":
		return GatewayStatusPending
	default:
		// deny, cancel, expire, failure, and anything unexpected
		return GatewayStatusFailed
	}
}

// parseGrossAmount converts the provider's decimal-string amount to minor units
func parseGrossAmount(gross string) int64 {
	amount, err := strconv.ParseFloat(gross, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(amount * 100))
}

// toMajorUnits converts minor units to the whole-unit amount the provider
// charges. The provider does not carry sub-unit precision, so totals are
// rounded half-up; the verify step compares against what was actually
// charged, which parseGrossAmount reproduces from the provider's response.
func toMajorUnits(minor int64) int64 {
	return int64(math.Round(float64(minor) / 100))
}

// --- Mock implementation for dev/test ---

// ErrUnknownReference is returned by the mock for references it was never told about
var ErrUnknownReference = errors.New("unknown payment reference")

// MockGateway is an in-memory gateway used under the dev/test flag. Results
// are scripted per reference; unscripted references verify as successful with
// the amount the session was initialized with.
type MockGateway struct {
	mu       sync.Mutex
	sessions map[string]int64 // reference -> amount minor
	results  map[string]*VerifyResult
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		sessions: make(map[string]int64),
		results:  make(map[string]*VerifyResult),
	}
}

// Script pins the verify outcome for a reference
func (m *MockGateway) Script(reference string, result *VerifyResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[reference] = result
}

func (m *MockGateway) Initialize(payment *models.Payment, booking *models.Booking, customerName, customerEmail string) (*CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[payment.Reference] = payment.AmountMinor
	return &CheckoutSession{
		Token:       "mock-" + payment.Reference,
		RedirectURL: "https://gateway.example/pay/" + payment.Reference,
	}, nil
}

func (m *MockGateway) Verify(reference string) (*VerifyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if result, ok := m.results[reference]; ok {
		return result, nil
	}

	amount, ok := m.sessions[reference]
	if !ok {
		return nil, ErrUnknownReference
	}

	return &VerifyResult{
		Status:        GatewayStatusSuccess,
		AmountMinor:   amount,
		Currency:      config.AppConfig.Payment.Currency,
		TransactionID: "mock-txn-" + reference,
		Message:       "mock settlement",
		RawPayload:    []byte(`{"mock":true}`),
	}, nil
}
