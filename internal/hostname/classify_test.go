package hostname

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		host string
		want Classification
	}{
		{"www.example.com", Classification{Kind: KindRoot}},
		{"tenant1.example.com", Classification{Kind: KindSubdomain, Identifier: "tenant1"}},
		{"example.com", Classification{Kind: KindRoot}},
		{"mystore.io", Classification{Kind: KindCustom, Identifier: "mystore.io"}},
		{"localhost:3000", Classification{Kind: KindLocalhost}},
		{"localhost", Classification{Kind: KindLocalhost}},
		{"127.0.0.1:8080", Classification{Kind: KindLocalhost}},
		{"10.1.2.3", Classification{Kind: KindLocalhost}},
		{"172.20.0.5", Classification{Kind: KindLocalhost}},
		{"192.168.1.10:3000", Classification{Kind: KindLocalhost}},
		{"[::1]:3000", Classification{Kind: KindLocalhost}},
		{"172.32.0.1", Classification{Kind: KindCustom, Identifier: "172.32.0.1"}},
		{"Tenant1.Example.COM:443", Classification{Kind: KindSubdomain, Identifier: "tenant1"}},
		{"example.com.", Classification{Kind: KindRoot}},
		{"api.example.com", Classification{Kind: KindRoot}},
		{"www.shop.example.com", Classification{Kind: KindRoot}},
		{"a.b.example.com", Classification{Kind: KindCustom, Identifier: "a.b.example.com"}},
		{"notexample.com", Classification{Kind: KindCustom, Identifier: "notexample.com"}},
		{"shop.mystore.io", Classification{Kind: KindCustom, Identifier: "shop.mystore.io"}},
	}
	for _, tc := range cases {
		t.Run(tc.host, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.host, "example.com"))
		})
	}
}

func TestClassify_Totality(t *testing.T) {
	inputs := []string{
		"", " ", ":", "::", "[", "]", "[::1", ".", "..", ".example.com",
		"\x00", "a:b:c", "exa mple.com", "ünïcode.example.com",
		"%2e%2e", "example.com:notaport", "-.example.com",
	}
	valid := map[Kind]bool{KindRoot: true, KindSubdomain: true, KindCustom: true, KindLocalhost: true}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			got := Classify(in, "example.com")
			assert.True(t, valid[got.Kind], "input %q gave kind %q", in, got.Kind)
		})
	}
}

func TestClassify_MalformedIsCustom(t *testing.T) {
	got := Classify("", "example.com")
	assert.Equal(t, KindCustom, got.Kind)
	assert.Equal(t, "", got.Identifier)

	got = Classify("a:b:c", "example.com")
	assert.Equal(t, KindCustom, got.Kind)
	assert.Equal(t, "a:b:c", got.Identifier)
}

func TestClassifier_CustomReserved(t *testing.T) {
	c := NewClassifier("Shop.Test", []string{"Status"})
	assert.Equal(t, "shop.test", c.Root())
	assert.Equal(t, Classification{Kind: KindRoot}, c.Classify("status.shop.test"))
	assert.Equal(t, Classification{Kind: KindSubdomain, Identifier: "www"}, c.Classify("www.shop.test"))
}

func TestClassifier_EmptyRoot(t *testing.T) {
	var c Classifier
	assert.Equal(t, Classification{Kind: KindCustom, Identifier: "foo.com"}, c.Classify("foo.com"))
	assert.Equal(t, KindLocalhost, c.Classify("localhost").Kind)
}

func TestIsTenant(t *testing.T) {
	assert.True(t, Classification{Kind: KindSubdomain}.IsTenant())
	assert.True(t, Classification{Kind: KindCustom}.IsTenant())
	assert.False(t, Classification{Kind: KindRoot}.IsTenant())
	assert.False(t, Classification{Kind: KindLocalhost}.IsTenant())
}

func TestIsLocal(t *testing.T) {
	for _, h := range []string{"localhost", "LOCALHOST:3000", "127.0.0.1:8080", "[::1]:443", "192.168.1.20", "172.20.0.5:80"} {
		assert.True(t, IsLocal(h), h)
	}
	for _, h := range []string{"acme.example.com", "8.8.8.8", "172.32.0.1", "", "localhost.example.com"} {
		assert.False(t, IsLocal(h), h)
	}
}
