package layout

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/papyrus-billing/invoice"
)

// QRSize 是银行信息区内付款二维码的边长（pt）。
const QRSize = 64.0

// qrPixels 是生成二维码位图的边长（像素）。
const qrPixels = 256

// LoadImageFile 从磁盘读取并解码 logo，支持 PNG/JPEG/GIF/WebP。
func LoadImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("解码图片失败: %w", err)
	}
	return img, nil
}

// UPIPaymentURI 生成 upi://pay 链接，金额取取整后的应付总额。
func UPIPaymentURI(p invoice.CompanyProfile, t invoice.Totals) string {
	q := url.Values{}
	q.Set("pa", p.Bank.UPI)
	q.Set("pn", p.Name)
	q.Set("am", t.Rounded().StringFixed(2))
	q.Set("cu", "INR")
	return "upi://pay?" + q.Encode()
}

// paymentQR 在银行信息区右上角放置付款二维码。
func paymentQR(area Box, p invoice.CompanyProfile, t invoice.Totals) (ImageBox, error) {
	code, err := qr.Encode(UPIPaymentURI(p, t), qr.M, qr.Auto)
	if err != nil {
		return ImageBox{}, fmt.Errorf("生成二维码失败: %w", err)
	}
	scaled, err := barcode.Scale(code, qrPixels, qrPixels)
	if err != nil {
		return ImageBox{}, fmt.Errorf("缩放二维码失败: %w", err)
	}
	return ImageBox{
		Name:   "upi-qr",
		X:      area.Right() - 4 - QRSize,
		Y:      area.Y + 4,
		Width:  QRSize,
		Height: QRSize,
		Image:  scaled,
	}, nil
}
