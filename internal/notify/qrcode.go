package notify

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font/basicfont"
)

const (
	qrImageSize     = 300
	captionHeight   = 36
	captionPaddingX = 12
)

var (
	cardBgColor     = color.RGBA{255, 255, 255, 255}
	captionBgColor  = color.RGBA{14, 165, 233, 255} // #0ea5e9
	captionTxtColor = color.RGBA{255, 255, 255, 255}
)

// RenderQRCard рисует PNG: QR-код с содержимым payload и подпись под ним
func RenderQRCard(payload, caption string) ([]byte, error) {
	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}

	dc := gg.NewContext(qrImageSize, qrImageSize+captionHeight)
	dc.SetColor(cardBgColor)
	dc.Clear()
	dc.DrawImage(qr.Image(qrImageSize), 0, 0)

	if caption != "" {
		dc.SetColor(captionBgColor)
		dc.DrawRectangle(0, qrImageSize, qrImageSize, captionHeight)
		dc.Fill()

		dc.SetFontFace(basicfont.Face7x13)
		dc.SetColor(captionTxtColor)
		dc.DrawStringAnchored(fitCaption(dc, caption), qrImageSize/2, qrImageSize+captionHeight/2, 0.5, 0.35)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// fitCaption обрезает подпись, чтобы она влезла в ширину карточки
func fitCaption(dc *gg.Context, caption string) string {
	maxWidth := float64(qrImageSize - 2*captionPaddingX)
	runes := []rune(caption)
	for len(runes) > 0 {
		if w, _ := dc.MeasureString(string(runes)); w <= maxWidth {
			return string(runes)
		}
		runes = runes[:len(runes)-1]
	}
	return ""
}
