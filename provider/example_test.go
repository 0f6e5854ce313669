package provider_test

import (
	"fmt"

	"github.com/jonwraymond/marketlens/provider"
)

func ExampleRegistry_Select() {
	reg := provider.DefaultRegistry()
	keys := provider.MapKeys(map[string]string{"mistral": "sk-test"}, nil)

	spec, _, err := reg.Select(provider.EnabledSet(), keys)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(spec.Name, spec.Format)
	// Output:
	// mistral openai
}

func ExampleParseEnvelope() {
	text := "Sure!\n" + `{"language":{"score":88},"culture":{"score":74},` +
		`"compliance":{"score":61,"issues":["no imprint"]},"userExperience":{"score":90}}`

	res, err := provider.ParseEnvelope(text, "DE")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res.Language.Score, res.Compliance.Issues)
	// Output:
	// 88 [no imprint]
}
