package imgx

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

func testImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDimensions(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(30, 50, color.Black)); err != nil {
		t.Fatalf("encode png 失败：%v", err)
	}
	w, h, format, err := Dimensions(buf.Bytes())
	if err != nil {
		t.Fatalf("Dimensions 失败：%v", err)
	}
	if w != 30 || h != 50 || format != "png" {
		t.Fatalf("结果不符合预期：%dx%d %s", w, h, format)
	}
}

func TestEnsureJPEG_PassesThroughJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(10, 10, color.White), nil); err != nil {
		t.Fatalf("encode jpeg 失败：%v", err)
	}
	out, format, err := EnsureJPEG(buf.Bytes())
	if err != nil {
		t.Fatalf("EnsureJPEG 失败：%v", err)
	}
	if format != "jpeg" || !bytes.Equal(out, buf.Bytes()) {
		t.Fatalf("JPEG 输入应原样返回（format=%s）", format)
	}
}

func TestEnsureJPEG_ConvertsPNGWithAlpha(t *testing.T) {
	// 全透明 PNG：转换后应铺白底。
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(40, 20, color.RGBA{})); err != nil {
		t.Fatalf("encode png 失败：%v", err)
	}
	out, format, err := EnsureJPEG(buf.Bytes())
	if err != nil {
		t.Fatalf("EnsureJPEG 失败：%v", err)
	}
	if format != "png" {
		t.Fatalf("期望原始格式 png，实际 %s", format)
	}
	got, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("输出不是合法 JPEG：%v", err)
	}
	if b := got.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("尺寸不符合预期：%v", b)
	}
	c := color.RGBAModel.Convert(got.At(20, 10)).(color.RGBA)
	if c.R < 240 || c.G < 240 || c.B < 240 {
		t.Fatalf("透明区域应为白色，实际 %v", c)
	}
}

func TestEnsureJPEG_ConvertsBMP(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, testImage(8, 16, color.RGBA{200, 0, 0, 255})); err != nil {
		t.Fatalf("encode bmp 失败：%v", err)
	}
	out, format, err := EnsureJPEG(buf.Bytes())
	if err != nil {
		t.Fatalf("EnsureJPEG 失败：%v", err)
	}
	if format != "bmp" {
		t.Fatalf("期望原始格式 bmp，实际 %s", format)
	}
	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("输出不是合法 JPEG：%v", err)
	}
}

func TestEnsureJPEG_Invalid(t *testing.T) {
	if _, _, err := EnsureJPEG(nil); err == nil {
		t.Fatalf("期望空输入返回错误")
	}
	if _, _, err := EnsureJPEG([]byte("<html>not an image</html>")); err == nil {
		t.Fatalf("期望非图片输入返回错误")
	}
}
