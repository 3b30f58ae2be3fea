package dsl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/papyrus-billing/invoice"
	"github.com/ByLCY/papyrus-billing/layout"
)

// Load 读取并解析公司资料文件，logo 相对路径以文件所在目录为基准。
func Load(path string) (invoice.CompanyProfile, error) {
	file, err := os.Open(path)
	if err != nil {
		return invoice.CompanyProfile{}, fmt.Errorf("无法打开公司资料文件 %s: %w", path, err)
	}
	defer file.Close()

	doc, err := documentParser.Parse(path, file)
	if err != nil {
		return invoice.CompanyProfile{}, fmt.Errorf("解析公司资料失败: %w", err)
	}
	return doc.Profile(filepath.Dir(path))
}

// Profile 将语法树转换为 invoice.CompanyProfile。未知或重复的字段会报错并带上位置。
func (d *Document) Profile(baseDir string) (invoice.CompanyProfile, error) {
	p := invoice.CompanyProfile{Name: strings.TrimSpace(string(d.Name))}
	if p.Name == "" {
		return p, fmt.Errorf("%s: 公司名称不能为空", d.Pos)
	}

	top := map[string]*string{
		"address":   &p.Address,
		"email":     &p.Email,
		"mobile":    &p.Mobile,
		"gstin":     &p.TaxID,
		"logo":      &p.LogoPath,
		"footer":    &p.FooterNote,
		"signature": &p.SignatureCaption,
		"currency":  &p.CurrencyUnit,
	}
	bank := map[string]*string{
		"name":        &p.Bank.Name,
		"account":     &p.Bank.AccountNumber,
		"ifsc":        &p.Bank.RoutingCode,
		"branch":      &p.Bank.Branch,
		"beneficiary": &p.Bank.Beneficiary,
		"upi":         &p.Bank.UPI,
	}

	seen := map[string]bool{}
	for _, st := range d.Statements {
		switch {
		case st.Page != nil:
			if seen["page"] {
				return p, fmt.Errorf("%s: 重复的 page 声明", st.Pos)
			}
			seen["page"] = true
			page, err := st.Page.setup()
			if err != nil {
				return p, fmt.Errorf("%s: %w", st.Pos, err)
			}
			p.Page = page
		case st.Bank != nil:
			if seen["bank"] {
				return p, fmt.Errorf("%s: 重复的 bank 块", st.Pos)
			}
			seen["bank"] = true
			if err := assign(st.Bank.Entries, bank, "bank."); err != nil {
				return p, err
			}
		case st.Assignment != nil:
			if err := assign([]*Assignment{st.Assignment}, top, ""); err != nil {
				return p, err
			}
			if seen[st.Assignment.Key] {
				return p, fmt.Errorf("%s: 重复的字段 %s", st.Assignment.Pos, st.Assignment.Key)
			}
			seen[st.Assignment.Key] = true
		}
	}

	if p.LogoPath != "" && !filepath.IsAbs(p.LogoPath) && baseDir != "" {
		p.LogoPath = filepath.Join(baseDir, p.LogoPath)
	}
	return p, nil
}

func assign(entries []*Assignment, fields map[string]*string, prefix string) error {
	seen := map[string]bool{}
	for _, a := range entries {
		target, ok := fields[a.Key]
		if !ok {
			return fmt.Errorf("%s: 未知字段 %s%s", a.Pos, prefix, a.Key)
		}
		if prefix != "" {
			if seen[a.Key] {
				return fmt.Errorf("%s: 重复的字段 %s%s", a.Pos, prefix, a.Key)
			}
			seen[a.Key] = true
		}
		*target = strings.TrimSpace(string(a.Value))
	}
	return nil
}

// setup 解析 `page A4 margin 36pt`；不带单位的边距按 pt 处理。
func (ps *PageSpec) setup() (invoice.PageSetup, error) {
	size, err := layout.LookupPageSize(ps.Size)
	if err != nil {
		return invoice.PageSetup{}, err
	}
	setup := invoice.PageSetup{Size: size.Name}
	for i := 0; i < len(ps.Params); i++ {
		param := ps.Params[i]
		switch strings.ToLower(param.Value) {
		case "margin":
			if i+1 >= len(ps.Params) || ps.Params[i+1].Type != "Number" {
				return setup, fmt.Errorf("margin 缺少长度值")
			}
			i++
			l := layout.ParseRawLengthStr(ps.Params[i].Value)
			if l.Unit == layout.UnitNone {
				l.Unit = layout.UnitPT
			}
			setup.Margin = l.ToPT()
		case "portrait":
		default:
			return setup, fmt.Errorf("未知的页面参数 %q", param.Raw)
		}
	}
	return setup, nil
}
