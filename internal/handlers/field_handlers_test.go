package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func (env *testEnv) createField(t *testing.T, bearer string, body map[string]interface{}) map[string]interface{} {
	rec := env.request(t, http.MethodPost, "/api/v1/fields", bearer, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody(t, rec)
}

func TestCreateFieldRequiresGestore(t *testing.T) {
	env := newTestEnv(t)
	fan := env.register(t, "fan", "fan@x.com", "secret1", "")

	rec := env.request(t, http.MethodPost, "/api/v1/fields", fan["token"].(string), map[string]interface{}{
		"name": "Campo Uno", "city": "Torino",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/v1/fields", "", map[string]interface{}{
		"name": "Campo Uno", "city": "Torino",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateField(t *testing.T) {
	env := newTestEnv(t)
	gestore := env.register(t, "gestore", "g@x.com", "secret1", "gestore")

	data := env.createField(t, gestore["token"].(string), map[string]interface{}{
		"name":        "Campo Uno",
		"description": "Erba sintetica",
		"city":        "Torino",
		"address":     "Via Roma 1",
		"price":       45.0,
	})

	field := data["field"].(map[string]interface{})
	require.Equal(t, "Campo Uno", field["name"])
	require.NotEmpty(t, field["image"], "default image must be applied")
	require.Equal(t, "gestore", field["gestore"].(map[string]interface{})["username"])
}

func TestCreateFieldValidation(t *testing.T) {
	env := newTestEnv(t)
	gestore := env.register(t, "gestore", "g@x.com", "secret1", "gestore")

	for _, body := range []map[string]interface{}{
		{"city": "Torino"},
		{"name": "Campo Uno"},
		{"name": "Campo Uno", "city": "Torino", "price": -5.0},
	} {
		rec := env.request(t, http.MethodPost, "/api/v1/fields", gestore["token"].(string), body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestGetFieldsPublic(t *testing.T) {
	env := newTestEnv(t)
	gestore := env.register(t, "gestore", "g@x.com", "secret1", "gestore")
	env.createField(t, gestore["token"].(string), map[string]interface{}{"name": "Campo Uno", "city": "Torino"})
	env.createField(t, gestore["token"].(string), map[string]interface{}{"name": "Campo Due", "city": "Milano"})

	rec := env.request(t, http.MethodGet, "/api/v1/fields", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)
	require.EqualValues(t, 2, data["count"])
	require.Len(t, data["fields"], 2)
}

func TestGetFieldByID(t *testing.T) {
	env := newTestEnv(t)
	gestore := env.register(t, "gestore", "g@x.com", "secret1", "gestore")
	created := env.createField(t, gestore["token"].(string), map[string]interface{}{"name": "Campo Uno", "city": "Torino"})
	id := created["field"].(map[string]interface{})["id"].(string)

	rec := env.request(t, http.MethodGet, "/api/v1/fields/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Campo Uno", decodeBody(t, rec)["name"])

	rec = env.request(t, http.MethodGet, "/api/v1/fields/not-a-uuid", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/v1/fields/00000000-0000-0000-0000-000000000001", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateFieldOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "owner", "owner@x.com", "secret1", "gestore")
	other := env.register(t, "other", "other@x.com", "secret1", "gestore")

	created := env.createField(t, owner["token"].(string), map[string]interface{}{"name": "Campo Uno", "city": "Torino"})
	id := created["field"].(map[string]interface{})["id"].(string)

	rec := env.request(t, http.MethodPut, "/api/v1/fields/"+id, other["token"].(string), map[string]interface{}{
		"name": "Campo Rubato",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodPut, "/api/v1/fields/"+id, owner["token"].(string), map[string]interface{}{
		"name": "Campo Rinnovato",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	field := decodeBody(t, rec)["field"].(map[string]interface{})
	require.Equal(t, "Campo Rinnovato", field["name"])
	// Fields not in the payload keep their stored values.
	require.Equal(t, "Torino", field["city"])
}

func TestDeleteFieldOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "owner", "owner@x.com", "secret1", "gestore")
	other := env.register(t, "other", "other@x.com", "secret1", "gestore")

	created := env.createField(t, owner["token"].(string), map[string]interface{}{"name": "Campo Uno", "city": "Torino"})
	id := created["field"].(map[string]interface{})["id"].(string)

	rec := env.request(t, http.MethodDelete, "/api/v1/fields/"+id, other["token"].(string), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodDelete, "/api/v1/fields/"+id, owner["token"].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/v1/fields/"+id, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLikeFieldToggle(t *testing.T) {
	env := newTestEnv(t)
	gestore := env.register(t, "gestore", "g@x.com", "secret1", "gestore")
	fan := env.register(t, "fan", "fan@x.com", "secret1", "")

	created := env.createField(t, gestore["token"].(string), map[string]interface{}{"name": "Campo Uno", "city": "Torino"})
	id := created["field"].(map[string]interface{})["id"].(string)

	rec := env.request(t, http.MethodPost, "/api/v1/fields/"+id+"/like", fan["token"].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)
	require.Equal(t, true, data["liked"])
	require.EqualValues(t, 1, data["likesCount"])

	rec = env.request(t, http.MethodPost, "/api/v1/fields/"+id+"/like", fan["token"].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeBody(t, rec)
	require.Equal(t, false, data["liked"])
	require.EqualValues(t, 0, data["likesCount"])

	rec = env.request(t, http.MethodPost, "/api/v1/fields/"+id+"/like", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
