package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const exportedWorkflow = `{
  "id": "wf-123",
  "name": "Daily report",
  "active": true,
  "meta": {"instanceId": "3f1c2b9e8d7a"},
  "pinData": {"Fetch": [{"json": {"email": "jane@example.com"}}]},
  "tags": [{"name": "internal"}],
  "nodes": [
    {
      "id": "a1",
      "name": "Webhook",
      "type": "n8n-nodes-base.webhook",
      "typeVersion": 2,
      "position": [100, 200],
      "webhookId": "d5e0f7c1",
      "parameters": {"path": "report", "httpMethod": "POST"}
    },
    {
      "id": "a2",
      "name": "Fetch",
      "type": "n8n-nodes-base.httpRequest",
      "typeVersion": 4.2,
      "position": [300, 200],
      "parameters": {"url": "https://api.example.com/v1/report", "chatId": 12345678901234567890},
      "credentials": {"httpHeaderAuth": {"id": "17", "name": "Prod header"}},
      "notes": "pulls the report"
    }
  ],
  "connections": {"Webhook": {"main": [[{"node": "Fetch", "type": "main", "index": 0}]]}},
  "settings": {"executionOrder": "v1"}
}`

func TestParse(t *testing.T) {
	def, err := Parse([]byte(exportedWorkflow))
	require.NoError(t, err)

	assert.Equal(t, "Daily report", def.Name)
	require.Len(t, def.Nodes, 2)

	webhook := def.Nodes[0]
	assert.Equal(t, "n8n-nodes-base.webhook", webhook.Type)
	assert.Equal(t, 2.0, webhook.TypeVersion)
	assert.Equal(t, []float64{100, 200}, webhook.Position)
	assert.Equal(t, "d5e0f7c1", webhook.Extra["webhookId"])
	assert.NotContains(t, webhook.Extra, "parameters")

	fetch := def.Nodes[1]
	assert.Equal(t, "pulls the report", fetch.Notes)
	require.Contains(t, fetch.Credentials, "httpHeaderAuth")
	assert.Equal(t, "Prod header", fetch.Credentials["httpHeaderAuth"].Name)
	require.NotNil(t, fetch.Credentials["httpHeaderAuth"].ID)
	assert.Equal(t, "17", *fetch.Credentials["httpHeaderAuth"].ID)
	assert.Equal(t, json.Number("12345678901234567890"), fetch.Parameters["chatId"])

	assert.Contains(t, def.Connections, "Webhook")
	assert.Equal(t, "v1", def.Settings["executionOrder"])
}

func TestMarshalDropsInstanceMetadata(t *testing.T) {
	def, err := Parse([]byte(exportedWorkflow))
	require.NoError(t, err)

	out, err := Marshal(def)
	require.NoError(t, err)

	root := gjson.ParseBytes(out)
	for _, field := range []string{"id", "active", "meta", "pinData", "tags"} {
		assert.False(t, root.Get(field).Exists(), "field %s should be dropped", field)
	}
	assert.Equal(t, "Daily report", root.Get("name").String())
	assert.Equal(t, "12345678901234567890", root.Get("nodes.1.parameters.chatId").Raw)
	assert.Equal(t, "d5e0f7c1", root.Get("nodes.0.webhookId").String())
	assert.Equal(t, "https://api.example.com/v1/report", root.Get("nodes.1.parameters.url").String())
}

func TestRoundTrip(t *testing.T) {
	def, err := Parse([]byte(exportedWorkflow))
	require.NoError(t, err)

	first, err := Marshal(def)
	require.NoError(t, err)

	again, err := Decode(first)
	require.NoError(t, err)

	second, err := Marshal(again)
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: `{"name": `},
		{name: "array root", input: `[]`},
		{name: "missing nodes", input: `{"name": "x"}`},
		{name: "node without type", input: `{"nodes": [{"name": "a"}]}`},
		{name: "parameters not an object", input: `{"nodes": [{"type": "t", "parameters": []}]}`},
		{name: "credential id is a number", input: `{"nodes": [{"type": "t", "credentials": {"x": {"id": 3, "name": "n"}}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestClone(t *testing.T) {
	def, err := Parse([]byte(exportedWorkflow))
	require.NoError(t, err)

	clone := def.Clone()
	clone.Name = "changed"
	clone.Nodes[1].Parameters["url"] = "changed"
	clone.Nodes[1].Credentials["httpHeaderAuth"] = Credential{Name: "changed"}
	clone.Nodes[0].Extra["webhookId"] = "changed"
	clone.Connections["Webhook"] = nil

	assert.Equal(t, "Daily report", def.Name)
	assert.Equal(t, "https://api.example.com/v1/report", def.Nodes[1].Parameters["url"])
	assert.Equal(t, "Prod header", def.Nodes[1].Credentials["httpHeaderAuth"].Name)
	assert.Equal(t, "d5e0f7c1", def.Nodes[0].Extra["webhookId"])
	assert.NotNil(t, def.Connections["Webhook"])
}

func TestMarshalEmptyDefinition(t *testing.T) {
	out, err := Marshal(&Definition{Name: "empty"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"empty","nodes":[],"connections":{},"settings":{}}`, string(out))

	_, err = Marshal(nil)
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}
