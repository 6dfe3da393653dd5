package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newTestClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(context.Background(), "project-id", option.WithGRPCConn(conn))
	require.NoError(t, err)
	return client, srv
}

func TestPublishSendsJSONPayload(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestClient(t)

	_, err := client.CreateTopic(ctx, "pageviews")
	require.NoError(t, err)

	pub := New(client, map[string]string{"source": "clustrmaps"})
	t.Cleanup(func() { _ = pub.Close() })

	id, err := pub.Publish(ctx, "pageviews", map[string]int64{"totalPageviews": 7})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].ID)
	assert.Equal(t, "clustrmaps", msgs[0].Attributes["source"])

	var got map[string]int64
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, int64(7), got["totalPageviews"])
}

func TestPublishMissingTopic(t *testing.T) {
	client, _ := newTestClient(t)
	pub := New(client, nil)
	t.Cleanup(func() { _ = pub.Close() })

	_, err := pub.Publish(context.Background(), "does-not-exist", "payload")
	assert.Error(t, err)

	_, err = pub.Publish(context.Background(), "", "payload")
	assert.Error(t, err)
}

func TestPublishWithoutClient(t *testing.T) {
	t.Parallel()

	pub := New(nil, nil)
	_, err := pub.Publish(context.Background(), "topic", "payload")
	assert.Error(t, err)
	assert.NoError(t, pub.Close())
}

func TestPublishUnmarshalablePayload(t *testing.T) {
	client, _ := newTestClient(t)
	pub := New(client, nil)
	t.Cleanup(func() { _ = pub.Close() })

	_, err := pub.Publish(context.Background(), "topic", make(chan int))
	assert.ErrorContains(t, err, "marshal payload")
}
