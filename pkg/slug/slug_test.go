package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/designneighbor/union-yoga-sanity/pkg/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		opts  []slug.Option
		want  string
	}{
		{name: "words", input: "Spring Retreat 2026!", want: "spring-retreat-2026"},
		{name: "diacritics", input: "Café & Résumé", want: "cafe-resume"},
		{name: "ligatures", input: "Große Straße", want: "grosse-strasse"},
		{name: "nordic", input: "Øresund Ærø", want: "oresund-aero"},
		{name: "punctuation runs collapse", input: "  yoga -- & -- pilates  ", want: "yoga-pilates"},
		{name: "non latin dropped", input: "Йога class", want: "class"},
		{name: "nothing usable", input: "¡¿?!", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "separator", input: "Contact Form", opts: []slug.Option{slug.Separator("_")}, want: "contact_form"},
		{name: "max length trims separator", input: "contact form", opts: []slug.Option{slug.MaxLength(8)}, want: "contact"},
		{name: "max length cuts word", input: "newsletter", opts: []slug.Option{slug.MaxLength(4)}, want: "news"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, slug.Make(tt.input, tt.opts...))
		})
	}
}
