package memimg

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

var (
	avatars      map[string]image.Image
	avatarsMutex sync.RWMutex
	foods        map[string]image.Image
	foodsMutex   sync.RWMutex
)

// LoadAvatars 把头像目录整个载入内存
func LoadAvatars(directory string) error {
	avatars = make(map[string]image.Image)
	return filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			img, err := LoadImage(path)
			if err != nil {
				return err
			}
			avatars[filepath.Base(path)] = img
		}
		return nil
	})
}

// LoadFoods 把食物图标目录整个载入内存
func LoadFoods(directory string) error {
	foods = make(map[string]image.Image)
	return filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			img, err := LoadImage(path)
			if err != nil {
				return err
			}
			foods[filepath.Base(path)] = img
		}
		return nil
	})
}

// LoadImage 从磁盘解码一张图片
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// WatchAvatars 监视头像目录 有变化就热更新到内存
func WatchAvatars(directory string) {
	watchDirectory(directory, SetAvatar)
}

// WatchFoods 监视食物图标目录 有变化就热更新到内存
func WatchFoods(directory string) {
	watchDirectory(directory, SetFood)
}

func watchDirectory(directory string, store func(string, image.Image)) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		panic(err) // 实际开发中应该更优雅地处理错误
	}
	defer watcher.Close()

	done := make(chan bool)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
					img, err := LoadImage(event.Name)
					if err == nil {
						store(filepath.Base(event.Name), img)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fmt.Println("error:", err)
			}
		}
	}()

	err = watcher.Add(directory)
	if err != nil {
		panic(err) // 实际开发中应该更优雅地处理错误
	}
	<-done
}

// SetAvatar 写入或替换一张内存头像
func SetAvatar(filename string, img image.Image) {
	avatarsMutex.Lock()
	if avatars == nil {
		avatars = make(map[string]image.Image)
	}
	avatars[filename] = img
	avatarsMutex.Unlock()
}

// SetFood 写入或替换一张内存食物图标
func SetFood(filename string, img image.Image) {
	foodsMutex.Lock()
	if foods == nil {
		foods = make(map[string]image.Image)
	}
	foods[filename] = img
	foodsMutex.Unlock()
}

func GetAvatarFromMemory(filename string) (image.Image, bool) {
	avatarsMutex.RLock()
	img, exists := avatars[filename]
	avatarsMutex.RUnlock()
	return img, exists
}

func GetFoodFromMemory(filename string) (image.Image, bool) {
	foodsMutex.RLock()
	img, exists := foods[filename]
	foodsMutex.RUnlock()
	return img, exists
}
