package imgx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // 注册 GIF 解码器
	"image/jpeg"
	_ "image/png" // 注册 PNG 解码器（输入不一定总是 jpeg）

	_ "golang.org/x/image/bmp"  // 注册 BMP 解码器
	_ "golang.org/x/image/tiff" // 注册 TIFF 解码器（部分博物馆提供 TIFF 原图）
	_ "golang.org/x/image/webp" // 注册 WebP 解码器（IIIF 服务可能协商出 webp）
)

// jpegQuality 在体积与质量之间比较均衡；重新编码只发生在非 JPEG 输入上。
const jpegQuality = 95

// Dimensions 只解析图片头，返回像素尺寸与格式名（"jpeg"/"png"/"webp"/...）。
func Dimensions(b []byte) (width, height int, format string, err error) {
	if len(b) == 0 {
		return 0, 0, "", errors.New("图片为空")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return 0, 0, "", fmt.Errorf("无法识别图片格式：%w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// EnsureJPEG 把任意已注册格式的图片规范化为 JPEG。
//
// 约束：
// - 输入已是 JPEG：原样返回（不做有损的二次编码）
// - 其它格式：解码后铺白底（去除透明通道）再编码为 JPEG
// - 返回值 format 为输入的原始格式
func EnsureJPEG(b []byte) (out []byte, format string, err error) {
	if len(b) == 0 {
		return nil, "", errors.New("图片为空")
	}
	_, _, format, err = Dimensions(b)
	if err != nil {
		return nil, "", err
	}
	if format == "jpeg" {
		return b, format, nil
	}

	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, format, err
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, format, errors.New("图片尺寸无效")
	}

	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, format, err
	}
	return buf.Bytes(), format, nil
}
