package swagger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/smartystreets/goconvey/convey"
	"go.yaml.in/yaml/v3"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a router with the OpenAPI document registered", t, func() {
		r := chi.NewRouter()
		Register(r)

		convey.Convey("GET /openapi.yaml serves the embedded document", func() {
			req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
			convey.So(w.Body.Bytes(), convey.ShouldResemble, OpenAPI)
		})
	})

	convey.Convey("Register panics on a nil router", t, func() {
		convey.So(func() { Register(nil) }, convey.ShouldPanic)
	})
}

func TestOpenAPIDocument(t *testing.T) {
	convey.Convey("The embedded document lists every route", t, func() {
		var doc struct {
			OpenAPI string                    `yaml:"openapi"`
			Paths   map[string]map[string]any `yaml:"paths"`
		}
		convey.So(yaml.Unmarshal(OpenAPI, &doc), convey.ShouldBeNil)
		convey.So(doc.OpenAPI, convey.ShouldStartWith, "3.")

		want := map[string]string{
			"/healthz":                 "get",
			"/stats":                   "get",
			"/stores":                  "put",
			"/stores/hot":              "get",
			"/stores/{storeID}/heat":   "get",
			"/stores/{storeID}/rank":   "get",
			"/games":                   "put",
			"/games/{gameID}/analysis": "get",
			"/recommendations":         "get",
			"/wins":                    "post",
			"/wins/{winID}/votes":      "post",
		}
		for path, method := range want {
			ops, ok := doc.Paths[path]
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(ops, convey.ShouldContainKey, method)
		}
	})
}
