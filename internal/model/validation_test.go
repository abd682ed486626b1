package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validVisitor() VisitorInput {
	return VisitorInput{
		VisitorName:  "Ramesh",
		VisitorPhone: "9998887770",
		Purpose:      "Family visit",
		ExpectedDate: "2025-03-01",
	}
}

func TestVisitorInputValidate(t *testing.T) {
	assert.NoError(t, validVisitor().Validate())

	cases := map[string]func(*VisitorInput){
		"visitor_name":  func(in *VisitorInput) { in.VisitorName = "  " },
		"visitor_phone": func(in *VisitorInput) { in.VisitorPhone = "555" },
		"purpose":       func(in *VisitorInput) { in.Purpose = "" },
		"expected_date": func(in *VisitorInput) { in.ExpectedDate = "01/03/2025" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := validVisitor()
			mutate(&in)
			err := in.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, field, verr.Field)
		})
	}
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("9998887770"))
	assert.False(t, ValidPhone("555"))
	assert.False(t, ValidPhone("99988877701"))
	assert.False(t, ValidPhone("99988a7770"))
}

func TestNormalizeAmount(t *testing.T) {
	got, err := NormalizeAmount("1500")
	require.NoError(t, err)
	assert.Equal(t, "1500.00", got)

	got, err = NormalizeAmount(" 99.5 ")
	require.NoError(t, err)
	assert.Equal(t, "99.50", got)

	for _, bad := range []string{"", "0", "0.00", "-5", "1.234", "abc", "1e3"} {
		_, err := NormalizeAmount(bad)
		assert.Error(t, err, bad)
	}
}

func TestPaymentRequestInputValidate(t *testing.T) {
	in := PaymentRequestInput{StudentID: "stu-1", Amount: json.Number("1500"), Type: PaymentTypeHostelFee, DueDate: "2025-01-31"}
	assert.NoError(t, in.Validate())

	in.Type = "Donation"
	var verr *ValidationError
	require.ErrorAs(t, in.Validate(), &verr)
	assert.Equal(t, "type", verr.Field)

	in.Type = PaymentTypeHostelFee
	in.DueDate = "2025-02-30"
	require.ErrorAs(t, in.Validate(), &verr)
	assert.Equal(t, "due_date", verr.Field)
}

func TestValidationErrorJSON(t *testing.T) {
	b, err := json.Marshal(&ValidationError{Field: "visitor_phone", Message: "visitor phone must be exactly 10 digits"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"field":"visitor_phone","error":"visitor phone must be exactly 10 digits"}`, string(b))
}
