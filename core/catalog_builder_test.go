package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogBuilder(t *testing.T) {
	catalog, err := NewCatalogBuilder().
		AddRule("手机号", "中国手机号", []string{"phone"}, `^1[3-9]\d{9}$`).
		AddRule("邮箱", "电子邮箱", []string{"email"}, `^\S+@\S+$`).
		Build()
	require.NoError(t, err)

	assert.Len(t, catalog.EnabledRules(), 2)
	assert.Equal(t, DefaultMaxFieldLength, catalog.Settings().MaxFieldLength)
	assert.True(t, catalog.Settings().ExcludeTestData)
}

func TestCatalogBuilderEnableSubset(t *testing.T) {
	catalog, err := NewCatalogBuilder().
		AddRule("手机号", "", []string{"phone"}, `\d+`).
		AddRule("邮箱", "", []string{"email"}, `@`).
		Enable("邮箱").
		Build()
	require.NoError(t, err)

	enabled := catalog.EnabledRules()
	require.Len(t, enabled, 1)
	assert.Equal(t, "邮箱", enabled[0].Name)
}

func TestCatalogBuilderErrors(t *testing.T) {
	t.Run("bad pattern", func(t *testing.T) {
		_, err := NewCatalogBuilder().
			AddRule("broken", "", nil, "[unclosed").
			Build()
		var cfgErr *RuleConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "broken", cfgErr.Rule)
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := NewCatalogBuilder().
			AddRule("dup", "", nil, "a").
			AddRule("dup", "", nil, "b").
			Build()
		require.Error(t, err)
	})

	t.Run("unknown enabled name", func(t *testing.T) {
		_, err := NewCatalogBuilder().
			AddRule("known", "", nil, "a").
			Enable("unknown").
			Build()
		require.Error(t, err)
	})
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	require.Len(t, catalog.EnabledRules(), 3)

	phone, ok := catalog.Rule("手机号")
	require.True(t, ok)
	assert.True(t, phone.ConfirmValue("13812345678"))

	email, ok := catalog.Rule("邮箱")
	require.True(t, ok)
	assert.True(t, email.ConfirmValue("alice@corp.cn"))

	idCard, ok := catalog.Rule("身份证号")
	require.True(t, ok)
	assert.True(t, idCard.ConfirmValue("11010519900307123X"))
	assert.False(t, idCard.ConfirmValue("1101051990030712"))
}
