package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/katana-http/katana/openapi"
)

func TestToPascalCase(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"snake", "user_id", "UserId"},
		{"already_camel", "listUsers", "ListUsers"},
		{"leading_digit", "123abc", "X123abc"},
		{"empty", "", "X"},
		{"single_word", "widget", "Widget"},
		{"double_underscore", "a__b", "AB"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToPascalCase(tc.in))
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"camel", "UserId", "user_id"},
		{"mixed", "listUsersByID", "list_users_by_id"},
		{"already_snake", "user_id", "user_id"},
		{"digits", "item2Count", "item2_count"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToSnakeCase(tc.in))
		})
	}
}

func TestGoTypeName(t *testing.T) {
	assert.Equal(t, "any", GoTypeName(nil))
	assert.Equal(t, "Schema", GoTypeName(&openapi.Schema{}))
	assert.Equal(t, "UserProfile", GoTypeName(&openapi.Schema{Name: "user_profile"}))
}

func TestGoFieldName(t *testing.T) {
	assert.Equal(t, "FirstName", GoFieldName("first_name"))
	assert.Equal(t, "Id", GoFieldName("id"))
}

func TestGoMethodName(t *testing.T) {
	assert.Equal(t, "ListUsers", GoMethodName("listUsers"))
	assert.Equal(t, "GetUserById", GoMethodName("get_user_by_id"))
}

func TestGoParamName(t *testing.T) {
	assert.Equal(t, "userId", GoParamName("user_id"))
	assert.Equal(t, "v", GoParamName(""))
}

func TestEnumCaseNameResolvesCollisions(t *testing.T) {
	used := map[string]bool{}
	first := EnumCaseName("active", used)
	second := EnumCaseName("active", used)
	assert.Equal(t, "Active", first)
	assert.NotEqual(t, first, second)
	assert.True(t, used[first])
	assert.True(t, used[second])
}

func TestEnumCaseNameLeadingDigit(t *testing.T) {
	used := map[string]bool{}
	name := EnumCaseName("200", used)
	assert.Equal(t, "X200", name)
}

func TestOperationBaseName(t *testing.T) {
	assert.Equal(t, "GetUsersId", OperationBaseName("GET", "/users/{id}"))
	assert.Equal(t, "PostOrders", OperationBaseName("POST", "/orders"))
}
