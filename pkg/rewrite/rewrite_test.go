package rewrite

import (
	"testing"

	"github.com/CompassSecurity/flowleek/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func strPtr(s string) *string {
	return &s
}

func testDefinition() *workflow.Definition {
	return &workflow.Definition{
		Name: "rewrite",
		Nodes: []workflow.Node{
			{
				Name: "Call",
				Type: "n8n-nodes-base.httpRequest",
				Parameters: map[string]any{
					"url":  "https://api.example.com/v1/items?a=1&b=2",
					"base": "https://api.example.com/v1",
				},
				Credentials: map[string]workflow.Credential{
					"httpHeaderAuth": {ID: strPtr("12"), Name: "Prod header"},
				},
			},
			{
				Name: "Calendar",
				Type: "n8n-nodes-base.googleCalendar",
				Parameters: map[string]any{
					"calendar": map[string]any{
						"__rl":             true,
						"mode":             "list",
						"value":            "primary-calendar-id",
						"cachedResultName": "Team calendar",
						"cachedResultUrl":  "https://calendar.example.com/team",
					},
				},
				Credentials: map[string]workflow.Credential{
					"googleCalendarOAuth2Api": {ID: strPtr("3"), Name: "Jane's calendar"},
					"httpHeaderAuth":          {ID: strPtr("13"), Name: "Staging header"},
				},
			},
		},
	}
}

func TestURLs(t *testing.T) {
	def := testDefinition()
	out, err := URLs(def, map[string]string{
		"https://api.example.com/v1":              "${API_EXAMPLE_COM_URL}",
		"https://api.example.com/v1/items?a=1&b=2": "${API_EXAMPLE_COM_URL_2}",
	})
	require.NoError(t, err)

	assert.Equal(t, "${API_EXAMPLE_COM_URL_2}", out.Nodes[0].Parameters["url"])
	assert.Equal(t, "${API_EXAMPLE_COM_URL}", out.Nodes[0].Parameters["base"])
	assert.Equal(t, "https://api.example.com/v1/items?a=1&b=2", def.Nodes[0].Parameters["url"])
}

func TestURLReplacerReplace(t *testing.T) {
	r := NewURLReplacer(map[string]string{
		"http://example.co":             "${EXAMPLE_CO_URL}",
		"https://internal.corp.example": "${INTERNAL_CORP_EXAMPLE_URL}",
	})

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"longer host untouched", `{"url":"http://example.co.localhost:5678/x"}`, `{"url":"http://example.co.localhost:5678/x"}`},
		{"longer path segment untouched", `{"url":"http://example.company/x"}`, `{"url":"http://example.company/x"}`},
		{"whole value", `{"url":"http://example.co"}`, `{"url":"${EXAMPLE_CO_URL}"}`},
		{"followed by path", `{"url":"http://example.co/api?x=1"}`, `{"url":"${EXAMPLE_CO_URL}/api?x=1"}`},
		{"followed by port", `{"url":"http://example.co:8443"}`, `{"url":"${EXAMPLE_CO_URL}:8443"}`},
		{"trailing punctuation", `{"note":"see http://example.co."}`, `{"note":"see ${EXAMPLE_CO_URL}."}`},
		{"inside escaped string", `{"jsCode":"fetch(\"http://example.co\")"}`, `{"jsCode":"fetch(\"${EXAMPLE_CO_URL}\")"}`},
		{"nested redirect target", `{"url":"http://localhost:5678/r?to=https://internal.corp.example"}`, `{"url":"http://localhost:5678/r?to=${INTERNAL_CORP_EXAMPLE_URL}"}`},
		{"preceded by word character", `{"url":"xhttp://example.co"}`, `{"url":"xhttp://example.co"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Replace(tt.text))
		})
	}
}

func TestURLsKeepsLongerHosts(t *testing.T) {
	def := &workflow.Definition{Nodes: []workflow.Node{{
		Name: "Call",
		Parameters: map[string]any{
			"public": "http://example.co/v1",
			"local":  "http://example.co.localhost:5678/x",
		},
	}}}

	out, err := URLs(def, map[string]string{"http://example.co": "${EXAMPLE_CO_URL}"})
	require.NoError(t, err)
	assert.Equal(t, "${EXAMPLE_CO_URL}/v1", out.Nodes[0].Parameters["public"])
	assert.Equal(t, "http://example.co.localhost:5678/x", out.Nodes[0].Parameters["local"])
}

func TestURLsWithoutPlaceholders(t *testing.T) {
	def := testDefinition()
	out, err := URLs(def, nil)
	require.NoError(t, err)
	assert.Equal(t, def, out)
	assert.NotSame(t, def, out)
}

func TestURLReplacerPath(t *testing.T) {
	r := NewURLReplacer(map[string]string{"https://a.example.com": "${A_EXAMPLE_COM_URL}"})
	p := workflow.Path{Node: 1, Keys: []any{"options", "https://a.example.com", 0}}

	assert.Equal(t, workflow.Path{Node: 1, Keys: []any{"options", "${A_EXAMPLE_COM_URL}", 0}}, r.Path(p))
	assert.Equal(t, "https://a.example.com", p.Keys[1])
}

func TestResourceLocators(t *testing.T) {
	def := testDefinition()
	out, err := ResourceLocators(def, []Replacement{{
		Path:        workflow.Path{Node: 1, Keys: []any{"calendar"}},
		Placeholder: "${CALENDAR}",
	}})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"__rl": true, "mode": "id", "value": "${CALENDAR}"}, out.Nodes[1].Parameters["calendar"])

	data, err := workflow.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Team calendar")
	assert.NotContains(t, string(data), "calendar.example.com")

	original := def.Nodes[1].Parameters["calendar"].(map[string]any)
	assert.Equal(t, "list", original["mode"])
}

func TestResourceLocatorsInvalidPath(t *testing.T) {
	_, err := ResourceLocators(testDefinition(), []Replacement{{
		Path:        workflow.Path{Node: 1, Keys: []any{"missing"}},
		Placeholder: "${X}",
	}})
	assert.ErrorContains(t, err, "replacing resource locator")
}

func TestCredentials(t *testing.T) {
	def := testDefinition()
	out := Credentials(def, func(credType string) string {
		return "${" + credType + "}"
	})

	data, err := workflow.Marshal(out)
	require.NoError(t, err)
	root := gjson.ParseBytes(data)

	assert.Equal(t, gjson.Null, root.Get("nodes.0.credentials.httpHeaderAuth.id").Type)
	assert.Equal(t, "${httpHeaderAuth}", root.Get("nodes.0.credentials.httpHeaderAuth.name").String())
	assert.Equal(t, "${httpHeaderAuth}", root.Get("nodes.1.credentials.httpHeaderAuth.name").String())
	assert.Equal(t, "${googleCalendarOAuth2Api}", root.Get("nodes.1.credentials.googleCalendarOAuth2Api.name").String())
	assert.NotContains(t, string(data), "Prod header")
	assert.NotContains(t, string(data), "Jane's calendar")

	assert.Equal(t, "Prod header", def.Nodes[0].Credentials["httpHeaderAuth"].Name)
	require.NotNil(t, def.Nodes[0].Credentials["httpHeaderAuth"].ID)
}
