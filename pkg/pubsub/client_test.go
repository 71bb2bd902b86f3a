package pubsub

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/config"
)

func TestTopicNamesDedupesAndSkipsBlank(t *testing.T) {
	names := TopicNames(config.PubSubConfig{
		IndentsTopic:      " kumss-indent-events ",
		InventoryTopic:    "",
		NotificationTopic: "kumss-indent-events",
	})
	require.Equal(t, []string{"kumss-indent-events"}, names)
}

func TestTopicResourceName(t *testing.T) {
	require.Equal(t, "projects/p1/topics/t1", topicResourceName("p1", "t1"))
	require.Equal(t, "projects/other/topics/t2", topicResourceName("p1", "projects/other/topics/t2"))
	require.Empty(t, topicResourceName("", "t1"))
	require.Empty(t, topicResourceName("p1", "  "))
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	require.Nil(t, c.Publisher("t1"))
	require.Error(t, c.Ping(nil))
	require.NoError(t, c.Close())
}
