package binding

import (
	"fmt"

	"github.com/ByLCY/papyrus-billing/invoice"
)

// Context 构造页脚与签名文字可用的占位符：company.*、customer.* 与 invoice.*。
func Context(inv invoice.Invoice, profile invoice.CompanyProfile) Vars {
	vars := Vars{
		"company.name":      profile.Name,
		"company.address":   profile.Address,
		"company.email":     profile.Email,
		"company.mobile":    profile.Mobile,
		"company.gstin":     profile.TaxID,
		"company.bank.name": profile.Bank.Name,
		"company.bank.ifsc": profile.Bank.RoutingCode,
		"customer.name":     inv.CustomerName,
		"customer.address":  inv.CustomerAddress,
		"customer.gstin":    inv.CustomerTaxID,
		"invoice.number":    inv.Number,
		"invoice.date":      inv.Date,
		"invoice.challan":   invoice.ChallanNumber(inv.Number),
	}
	for i, it := range inv.Items {
		prefix := fmt.Sprintf("invoice.items[%d].", i)
		vars[prefix+"product_name"] = it.ProductName
		vars[prefix+"description"] = it.Description
		vars[prefix+"hsn_sac"] = it.HSNSAC
	}
	return vars
}
