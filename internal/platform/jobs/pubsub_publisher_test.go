package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/sante-plus/api/internal/services"
)

func TestPubSubOrderPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubOrderPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubOrderPublisher: %v", err)
	}

	placedAt := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	msg := services.OrderPlacedMessage{
		OrderID:       "01JX3V5T9GQ4",
		OrderNumber:   "CMD-20260315-0007",
		UserID:        "user-42",
		Status:        "processing",
		PaymentMethod: "card",
		Currency:      "XOF",
		Total:         13999,
		ItemCount:     2,
		PlacedAt:      placedAt,
	}

	if _, err := publisher.PublishOrderPlaced(ctx, msg); err != nil {
		t.Fatalf("PublishOrderPlaced: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload services.OrderPlacedMessage
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != msg.OrderID || payload.OrderNumber != msg.OrderNumber {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["orderNumber"]; attr != msg.OrderNumber {
		t.Fatalf("expected order number attribute, got %q", attr)
	}
	if attr := messages[0].Attributes["total"]; attr != "13999" {
		t.Fatalf("expected total attribute, got %q", attr)
	}
}
