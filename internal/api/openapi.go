package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"crypto-dash/internal/domain"
)

func componentRef(name string, s *openapi3.Schema) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, s)
}

// OpenAPIDocument describes the public API.
func OpenAPIDocument(version string) *openapi3.T {
	row := openapi3.NewObjectSchema().
		WithProperty("date", openapi3.NewStringSchema().WithFormat("date")).
		WithProperty("price_usd", openapi3.NewFloat64Schema()).
		WithProperty("volume_usd", openapi3.NewFloat64Schema())
	row.Required = []string{"date", "price_usd", "volume_usd"}

	list := openapi3.NewArraySchema()
	list.Items = componentRef("PriceRow", row)
	prices := openapi3.NewObjectSchema().WithPropertyRef("data", openapi3.NewSchemaRef("", list))
	prices.Required = []string{"data"}

	errSchema := openapi3.NewObjectSchema().WithProperty("error", openapi3.NewStringSchema())
	errSchema.Required = []string{"error"}

	health := openapi3.NewObjectSchema().
		WithProperty("status", openapi3.NewStringSchema()).
		WithProperty("engine", openapi3.NewStringSchema())

	enum := make([]any, 0, len(domain.AllowedRanges))
	for _, d := range domain.AllowedRanges {
		enum = append(enum, d)
	}
	days := openapi3.NewIntegerSchema().WithEnum(enum...)
	days.Default = domain.DefaultRange

	daysParam := openapi3.NewQueryParameter("days").WithSchema(days)
	daysParam.Description = fmt.Sprintf("Window length in days. Unsupported values fall back to %d.", domain.DefaultRange)

	getCrypto := openapi3.NewOperation()
	getCrypto.OperationID = "getCryptoPrices"
	getCrypto.Summary = "Daily average price and total volume"
	getCrypto.Parameters = openapi3.Parameters{{Value: daysParam}}
	getCrypto.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("One row per day, oldest first").
			WithJSONSchemaRef(componentRef("PricesResponse", prices))}),
		openapi3.WithStatus(http.StatusInternalServerError, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("The query could not be completed").
			WithJSONSchemaRef(componentRef("ErrorResponse", errSchema))}),
		openapi3.WithStatus(http.StatusTooManyRequests, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Rate limit exceeded").
			WithJSONSchemaRef(componentRef("ErrorResponse", errSchema))}),
	)

	getHealth := openapi3.NewOperation()
	getHealth.OperationID = "getHealth"
	getHealth.Summary = "Liveness check"
	getHealth.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Service is up").
			WithJSONSchemaRef(componentRef("Health", health))}),
	)

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "Crypto Dashboard API",
			Version: version,
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/crypto", &openapi3.PathItem{Get: getCrypto}),
			openapi3.WithPath("/health", &openapi3.PathItem{Get: getHealth}),
		),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"PriceRow":       openapi3.NewSchemaRef("", row),
				"PricesResponse": openapi3.NewSchemaRef("", prices),
				"ErrorResponse":  openapi3.NewSchemaRef("", errSchema),
				"Health":         openapi3.NewSchemaRef("", health),
			},
		},
	}
}

func serveOpenAPI(doc *openapi3.T) http.HandlerFunc {
	body, err := json.Marshal(doc)
	return func(w http.ResponseWriter, _ *http.Request) {
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

const docsPage = `<!DOCTYPE html>
<html>
<head>
    <title>Crypto Dashboard API</title>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/@scalar/api-reference@1.44.16/dist/style.min.css" />
</head>
<body>
    <script id="api-reference" data-url="/openapi.json"></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference@1.44.16/dist/browser/standalone.min.js"></script>
</body>
</html>`

func serveDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprint(w, docsPage)
}
