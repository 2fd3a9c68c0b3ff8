package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
)

type staticCredentials struct {
	creds Credentials
	reads int
}

func (s *staticCredentials) ReadCredentials(context.Context) (Credentials, error) {
	s.reads++
	return s.creds, nil
}

type gatewayFixture struct {
	logins      int
	packages    int
	lastPayload map[string]any
	lastAuth    string
	statusBody  string
	createBody  string
	deleteCode  int
}

func newGatewayServer(t *testing.T, fixture *gatewayFixture) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode login body: %v", err)
		}
		if body["apiKey"] != "key" || body["secretKey"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"description":"bad credentials"}`)
			return
		}
		fixture.logins++
		io.WriteString(w, `{"token":"tok-1","expiration":""}`)
	})

	mux.HandleFunc("POST /package", func(w http.ResponseWriter, r *http.Request) {
		fixture.packages++
		fixture.lastAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&fixture.lastPayload); err != nil {
			t.Fatalf("decode package body: %v", err)
		}
		body := fixture.createBody
		if body == "" {
			body = `{"trackingID":"TRK-42","status":"Pending"}`
		}
		io.WriteString(w, body)
	})

	mux.HandleFunc("GET /package/", func(w http.ResponseWriter, r *http.Request) {
		fixture.lastAuth = r.Header.Get("Authorization")
		body := fixture.statusBody
		if body == "" {
			body = `{"status":"In Transit"}`
		}
		io.WriteString(w, body)
	})

	mux.HandleFunc("DELETE /package/", func(w http.ResponseWriter, r *http.Request) {
		code := fixture.deleteCode
		if code == 0 {
			code = http.StatusOK
		}
		if code == http.StatusNotFound {
			w.WriteHeader(code)
			io.WriteString(w, `{"message":"package not found"}`)
			return
		}
		w.WriteHeader(code)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, baseURL string) (*Client, *staticCredentials) {
	t.Helper()
	source := &staticCredentials{creds: Credentials{APIKey: "key", SecretKey: "secret", BaseURL: baseURL}}
	client, err := NewClient(source,
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		WithBaseURL(baseURL),
		WithDefaultCity("Alger"),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, source
}

func TestCreateShipment_registersPackage(t *testing.T) {
	fixture := &gatewayFixture{}
	server := newGatewayServer(t, fixture)
	client, _ := newTestClient(t, server.URL)

	shipment, err := client.CreateShipment(context.Background(), ShipmentRequest{
		Reference: "ORD-0001",
		Customer:  "Amine B",
		Phone:     "0550123456",
		City:        "casa",
		Address:     "12 Rue Didouche",
		Price:       decimal.NewFromInt(250),
		Description: "2x Veste + 1x Casquette",
		Comment:     "Sonner avant de livrer",
	})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if shipment.TrackingID != "TRK-42" {
		t.Fatalf("unexpected tracking id: %s", shipment.TrackingID)
	}
	if shipment.Status != "Pending" {
		t.Fatalf("unexpected status: %s", shipment.Status)
	}
	if fixture.lastAuth != "Bearer tok-1" {
		t.Fatalf("unexpected auth header: %s", fixture.lastAuth)
	}
	if fixture.lastPayload["price"] != float64(250) {
		t.Fatalf("unexpected price: %v", fixture.lastPayload["price"])
	}
	if fixture.lastPayload["name"] != "Order ORD-0001" {
		t.Fatalf("unexpected package name: %v", fixture.lastPayload["name"])
	}
	if fixture.lastPayload["description"] != "2x Veste + 1x Casquette" {
		t.Fatalf("unexpected description: %v", fixture.lastPayload["description"])
	}
	if fixture.lastPayload["comment"] != "Sonner avant de livrer" {
		t.Fatalf("unexpected comment: %v", fixture.lastPayload["comment"])
	}
	if fixture.lastPayload["inventory"] != false {
		t.Fatalf("unexpected inventory flag: %v", fixture.lastPayload["inventory"])
	}
	destination, ok := fixture.lastPayload["destination"].(map[string]any)
	if !ok {
		t.Fatalf("missing destination object: %v", fixture.lastPayload)
	}
	if destination["name"] != "Amine B" {
		t.Fatalf("unexpected destination name: %v", destination["name"])
	}
	if destination["phone"] != "0550123456" {
		t.Fatalf("unexpected destination phone: %v", destination["phone"])
	}
	if destination["city"] != "Casablanca" {
		t.Fatalf("city alias not applied: %v", destination["city"])
	}
	if destination["streetAddress"] != "12 Rue Didouche" {
		t.Fatalf("unexpected street address: %v", destination["streetAddress"])
	}
}

func TestCreateShipment_defaultsDescription(t *testing.T) {
	fixture := &gatewayFixture{}
	server := newGatewayServer(t, fixture)
	client, _ := newTestClient(t, server.URL)

	if _, err := client.CreateShipment(context.Background(), ShipmentRequest{
		Reference: "ORD-0002",
		Customer:  "Amine B",
		Phone:     "0550123456",
	}); err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if fixture.lastPayload["description"] != "Commande" {
		t.Fatalf("unexpected default description: %v", fixture.lastPayload["description"])
	}
}

func TestCreateShipment_fallsBackToCheckingID(t *testing.T) {
	fixture := &gatewayFixture{createBody: `{"checkingID":"CHK-7"}`}
	server := newGatewayServer(t, fixture)
	client, _ := newTestClient(t, server.URL)

	shipment, err := client.CreateShipment(context.Background(), ShipmentRequest{
		Reference: "ORD-0001",
		Customer:  "Amine B",
		Phone:     "0550123456",
	})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if shipment.TrackingID != "CHK-7" {
		t.Fatalf("unexpected tracking id: %s", shipment.TrackingID)
	}
}

func TestTokenIsCachedAcrossCalls(t *testing.T) {
	fixture := &gatewayFixture{}
	server := newGatewayServer(t, fixture)
	client, source := newTestClient(t, server.URL)
	ctx := context.Background()

	if _, err := client.ShipmentStatus(ctx, "TRK-1"); err != nil {
		t.Fatalf("ShipmentStatus: %v", err)
	}
	if _, err := client.ShipmentStatus(ctx, "TRK-2"); err != nil {
		t.Fatalf("ShipmentStatus: %v", err)
	}

	if fixture.logins != 1 {
		t.Fatalf("expected a single login, got %d", fixture.logins)
	}
	if source.reads != 1 {
		t.Fatalf("expected credentials read once, got %d", source.reads)
	}
}

func TestTokenRefreshesAfterExpiry(t *testing.T) {
	fixture := &gatewayFixture{}
	server := newGatewayServer(t, fixture)

	current := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	source := &staticCredentials{creds: Credentials{APIKey: "key", SecretKey: "secret"}}
	client, err := NewClient(source,
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		WithBaseURL(server.URL),
		WithTokenTTL(time.Hour),
		WithClock(func() time.Time { return current }),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	if _, err := client.ShipmentStatus(ctx, "TRK-1"); err != nil {
		t.Fatalf("ShipmentStatus: %v", err)
	}
	current = current.Add(2 * time.Hour)
	if _, err := client.ShipmentStatus(ctx, "TRK-1"); err != nil {
		t.Fatalf("ShipmentStatus: %v", err)
	}

	if fixture.logins != 2 {
		t.Fatalf("expected re-login after expiry, got %d logins", fixture.logins)
	}
}

func TestShipmentStatus_surfacesGatewayErrorMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"token":"tok-1"}`)
	})
	mux.HandleFunc("GET /package/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"description":"courier offline"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, _ := newTestClient(t, server.URL)
	_, err := client.ShipmentStatus(context.Background(), "TRK-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodeGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if !strings.Contains(err.Error(), "courier offline") {
		t.Fatalf("expected the gateway description in the error, got %v", err)
	}
}

func TestCancelShipment_treatsNotFoundAsSuccess(t *testing.T) {
	fixture := &gatewayFixture{deleteCode: http.StatusNotFound}
	server := newGatewayServer(t, fixture)
	client, _ := newTestClient(t, server.URL)

	if err := client.CancelShipment(context.Background(), "TRK-GONE"); err != nil {
		t.Fatalf("a 404 cancel must succeed, got %v", err)
	}
}

func TestCancelShipment_propagatesOtherFailures(t *testing.T) {
	fixture := &gatewayFixture{deleteCode: http.StatusInternalServerError}
	server := newGatewayServer(t, fixture)
	client, _ := newTestClient(t, server.URL)

	if err := client.CancelShipment(context.Background(), "TRK-1"); err == nil {
		t.Fatal("expected error on gateway failure")
	}
}

func TestUnauthorizedTriggersOneRetry(t *testing.T) {
	var logins, statusCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		logins++
		io.WriteString(w, `{"token":"tok-fresh"}`)
	})
	mux.HandleFunc("GET /package/", func(w http.ResponseWriter, r *http.Request) {
		statusCalls++
		if statusCalls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"status":"Delivered to hub"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, _ := newTestClient(t, server.URL)
	status, err := client.ShipmentStatus(context.Background(), "TRK-1")
	if err != nil {
		t.Fatalf("ShipmentStatus: %v", err)
	}
	if status != "Delivered to hub" {
		t.Fatalf("unexpected status: %s", status)
	}
	if logins != 2 {
		t.Fatalf("expected a re-login on 401, got %d logins", logins)
	}
}
