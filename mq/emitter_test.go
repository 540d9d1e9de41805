package mq

import (
	"context"
	"encoding/json"
	"testing"

	"blackline/models"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewOrderEvent(t *testing.T) {
	uid := primitive.NewObjectID()
	o := &models.Order{
		ID:     primitive.NewObjectID(),
		Owner:  models.UserOwner(uid),
		Status: models.OrderPending,
		Total:  models.MoneyFromString("250.00"),
		Items:  []models.OrderItem{{Quantity: 1}, {Quantity: 2}},
	}

	evt := NewOrderEvent(EventOrderPlaced, o)
	assert.Equal(t, uid.Hex(), evt.UserID)
	assert.Empty(t, evt.Session)
	assert.Equal(t, 2, evt.Items)

	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"total":250`)
	assert.Contains(t, string(raw), `"event":"order.placed"`)
}

func TestNewPublisherWithoutRedisLogs(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	p := NewPublisher(nil, log)
	require.IsType(t, LogPublisher{}, p)

	p.Emit(context.Background(), OrderEvent{Event: EventOrderPlaced, OrderID: "abc"})
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "abc", hook.LastEntry().Data["order"])
}
