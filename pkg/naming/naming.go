// Package naming derives the placeholder variables that replace instance
// specific values. A Namer is used for one run: it hands out the same
// Variable for the same value and never gives one name to two values.
package naming

import (
	"strconv"
	"strings"

	"github.com/CompassSecurity/flowleek/pkg/locator"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	ipURLName        = "SERVICE_URL"
	resourceFallback = "RESOURCE"
	credentialSuffix = "_CREDENTIAL"
)

type Variable struct {
	Name        string `json:"name"`
	Example     string `json:"example,omitempty"`
	Description string `json:"description"`
}

// Placeholder is the token written into the artifact in place of the value.
func (v Variable) Placeholder() string {
	return Placeholder(v.Name)
}

func Placeholder(name string) string {
	return "${" + name + "}"
}

type Namer struct {
	owners    map[string]string
	variables map[string]Variable
	title     cases.Caser
}

func NewNamer() *Namer {
	return &Namer{
		owners:    map[string]string{},
		variables: map[string]Variable{},
		title:     cases.Title(language.English),
	}
}

// URL names an absolute URL after its host. Bare IP hosts share the generic
// service URL name.
func (n *Namer) URL(rawURL string) Variable {
	key := "url\x00" + rawURL
	if v, ok := n.variables[key]; ok {
		return v
	}

	host := locator.Host(rawURL)
	base := ipURLName
	description := "Base URL of the service previously reachable at " + rawURL
	if !locator.IsIP(host) {
		base = hostName(host) + "_URL"
		description = "Base URL for " + host
	}
	return n.assign(key, base, rawURL, description)
}

// ResourceLocator names a resource locator after the parameter holding it.
func (n *Namer) ResourceLocator(field, value string) Variable {
	key := "rl\x00" + field + "\x00" + value
	if v, ok := n.variables[key]; ok {
		return v
	}

	base := UpperSnake(field)
	label := n.label(field)
	if base == "" {
		base = resourceFallback
		label = "Resource"
	}
	return n.assign(key, base, value, "ID of the "+label+" to use")
}

// Credential names a credential type. All nodes binding the same type share
// one variable.
func (n *Namer) Credential(credType string) Variable {
	key := "cred\x00" + credType
	if v, ok := n.variables[key]; ok {
		return v
	}

	base := UpperSnake(credType)
	if base == "" {
		base = "UNNAMED"
	}
	return n.assign(key, base+credentialSuffix, "", "Name of your "+n.label(credType)+" credential")
}

func (n *Namer) assign(key, base, example, description string) Variable {
	name := base
	for i := 2; ; i++ {
		owner, taken := n.owners[name]
		if !taken || owner == key {
			break
		}
		name = base + "_" + strconv.Itoa(i)
	}
	n.owners[name] = key

	v := Variable{Name: name, Example: example, Description: description}
	n.variables[key] = v
	return v
}

func (n *Namer) label(identifier string) string {
	words := Words(identifier)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return n.title.String(strings.Join(words, " "))
}

func hostName(host string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToUpper(host) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		return "SERVICE"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "HOST_" + name
	}
	return name
}
