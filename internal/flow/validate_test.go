package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPhone(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"+79991234567", true},
		{"+1234567", true},
		{" +79991234567 ", true},
		{"79991234567", false},
		{"+799912", false},
		{"", false},
		{"телефон", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidPhone(tt.input), "input %q", tt.input)
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"a@b.com", true},
		{"name@example.ru", true},
		// A dot at a boundary is still accepted, only "@" position matters.
		{"a@b.com.", true},
		{".a@bcom", true},
		{"@b.com", false},
		{"b.com@", false},
		{"ab.com", false},
		{"a@bcom", false},
		{"a@b.c", false}, // shorter than 6
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidEmail(tt.input), "input %q", tt.input)
	}
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress("Москва, Ленина 10"))
	assert.True(t, ValidAddress("улица 1"))
	assert.False(t, ValidAddress("Москва"))
	assert.False(t, ValidAddress("   ул 1  "))
}

func TestParseRentDays(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"45", 45, true},
		{"1", 1, true},
		{"3650", 3650, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"3651", 0, false},
		{"сорок", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseRentDays(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestSplitItems(t *testing.T) {
	assert.Equal(t, []string{"лыжи", "шины", "санки"}, SplitItems("лыжи, шины; санки"))
	assert.Equal(t, []string{"лыжи", "шины"}, SplitItems("лыжи\nшины"))
	assert.Nil(t, SplitItems("  ,  ;  "))
	assert.Nil(t, SplitItems(""))
}

func TestYesNoCancel(t *testing.T) {
	assert.True(t, IsYes("ДА"))
	assert.True(t, IsYes("yes"))
	assert.False(t, IsYes("да, конечно"))
	assert.True(t, IsNo("Нет"))
	assert.True(t, IsCancel("/cancel"))
	assert.True(t, IsCancel("Отмена"))
	assert.True(t, IsCancel("Вернуться в главное меню"))
	assert.False(t, IsCancel("отменить"))
}

func TestPricing(t *testing.T) {
	monthly := MonthlyWithDiscount(1000, 20)
	assert.Equal(t, 800.0, monthly)
	assert.Equal(t, 800.0, TotalPrice(monthly, 30))
	assert.Equal(t, 1000.0, MonthlyWithDiscount(1000, 0))
	assert.InDelta(t, 1200.0, TotalPrice(800, 45), 0.001)
}
