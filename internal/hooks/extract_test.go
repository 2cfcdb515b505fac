package hooks

import (
	"testing"

	"github.com/kamishop/backend/internal/orders"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/kamishop/backend/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestRoutingTag_MetadataWins(t *testing.T) {
	order := &models.Order{
		Info: "来源:legacy-tag",
		Metadata: types.JSONMap{
			orders.MetadataKeySource: "novel",
		},
	}
	assert.Equal(t, "novel", Extractor{}.RoutingTag(order))
}

func TestRoutingTag_LegacyInfoFallback(t *testing.T) {
	cases := []struct {
		name string
		info string
		want string
	}{
		{"half-width colon", "充值订单 来源:novel 其他", "novel"},
		{"full-width colon", "来源：novel", "novel"},
		{"whitespace separator", "来源 novel", "novel"},
		{"colon plus spaces", "来源:  novel", "novel"},
		{"no tag", "普通订单备注", ""},
		{"empty info", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := &models.Order{Info: tc.info}
			assert.Equal(t, tc.want, Extractor{}.RoutingTag(order))
		})
	}
}

func TestRechargeAccount(t *testing.T) {
	cases := []struct {
		name  string
		order *models.Order
		want  string
	}{
		{
			"metadata wins",
			&models.Order{
				Info:     "充值账号:old-account",
				Metadata: types.JSONMap{orders.MetadataKeyRechargeAccount: "reader-77"},
			},
			"reader-77",
		},
		{"half-width colon", &models.Order{Info: "充值账号:reader-77"}, "reader-77"},
		{"full-width colon", &models.Order{Info: "充值账号：reader-77 来源:novel"}, "reader-77"},
		{"absent", &models.Order{Info: "来源:novel"}, ""},
		{"nil order", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Extractor{}.RechargeAccount(tc.order))
		})
	}
}
