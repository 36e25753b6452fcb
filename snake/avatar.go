package snake

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"os"

	"github.com/disintegration/imaging"
	"github.com/hoshinonyaruko/snake-classic/memimg"
)

// ProcessAndSaveAvatar 下载并处理头像到avatar文件夹
// 原图留档 模糊版做棋盘背景 缩放版画在蛇头上
func ProcessAndSaveAvatar(avatarUrl, sessionID string, blockSize int) error {
	// 下载头像图片
	resp, err := http.Get(avatarUrl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("avatar download failed with status %d", resp.StatusCode)
	}

	// 从响应中读取图像数据
	imgData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// 解码图像数据
	img, _, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return err
	}

	// 将原始图像数据保存为文件
	avatarFileName := fmt.Sprintf("%s.jpg", sessionID)
	if err := os.WriteFile(fmt.Sprintf("./avatar/%s", avatarFileName), imgData, 0644); err != nil {
		return err
	}

	// 应用高斯模糊 做背景
	blurredImg := imaging.Blur(img, 15) // 调整sigma参数以控制模糊的强度
	blurredFileName := fmt.Sprintf("%s_blur.jpg", sessionID)
	if err := saveJPEG(fmt.Sprintf("./avatar/%s", blurredFileName), blurredImg); err != nil {
		return err
	}

	// 缩放图像到指定的blockSize 做蛇头
	scaledImg := imaging.Resize(img, blockSize, blockSize, imaging.Lanczos)
	smallFileName := fmt.Sprintf("%s_small.jpg", sessionID)
	if err := saveJPEG(fmt.Sprintf("./avatar/%s", smallFileName), scaledImg); err != nil {
		return err
	}

	// 更新内存缓存 渲染不用再读盘
	memimg.SetAvatar(avatarFileName, img)
	memimg.SetAvatar(blurredFileName, blurredImg)
	memimg.SetAvatar(smallFileName, scaledImg)

	return nil
}

func saveJPEG(path string, img image.Image) error {
	outFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer outFile.Close()
	return jpeg.Encode(outFile, img, &jpeg.Options{Quality: 95}) // 以高质量保存
}
