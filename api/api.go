package api

import (
	"database/sql"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-classic/config"
	"github.com/hoshinonyaruko/snake-classic/memimg"
	"github.com/hoshinonyaruko/snake-classic/snake"
	"github.com/hoshinonyaruko/snake-classic/sqlite"
	"github.com/hoshinonyaruko/snake-classic/structs"
	_ "github.com/mattn/go-sqlite3"
)

// 全局缓存 背景层画一次就复用
var drawingCache sync.Map

func InitDB() *sql.DB {
	db, err := sql.Open("sqlite3", "game.db")
	if err != nil {
		log.Fatal(err)
	}

	sqlite.InitializeDatabase(db)

	return db
}

func newRng() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// gameState 拼一份对外的状态JSON 蛇 食物 分数 状态
func gameState(game *structs.Game) gin.H {
	return gin.H{
		"session_id": game.SessionID,
		"snake":      game.Snake,
		"food":       game.Food,
		"score":      game.Score,
		"status":     game.Status,
		"width":      game.Width,
		"height":     game.Height,
	}
}

// NewGameHandler 开一局新游戏 已有会话时原地重开
func NewGameHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("sessionid")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: sessionid"})
			return
		}
		width, _ := strconv.Atoi(c.DefaultQuery("width", "0"))
		height, _ := strconv.Atoi(c.DefaultQuery("height", "0"))
		tickInterval, _ := strconv.Atoi(c.DefaultQuery("tick_interval", "0"))
		avatarUrl, _ := url.QueryUnescape(c.Query("avatarUrl")) // Decode the URL

		rng := newRng()
		game, err := sqlite.LoadGame(db, sessionID)
		if err == sql.ErrNoRows || width != 0 || height != 0 || tickInterval != 0 {
			// 不存在或显式换了参数 按配置默认值补齐后新建
			if width == 0 {
				width = config.GetConfigValue("mapwidth").(int)
			}
			if height == 0 {
				height = config.GetConfigValue("mapheight").(int)
			}
			if tickInterval == 0 {
				tickInterval = config.GetConfigValue("tick_interval").(int)
			}
			game = snake.NewGame(sessionID, width, height, tickInterval, rng)
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch game"})
			return
		} else {
			// 同一张地图重开
			snake.Reset(game, rng)
		}

		if avatarUrl != "" {
			// Process and save the avatar
			if err := snake.ProcessAndSaveAvatar(avatarUrl, sessionID, config.GetConfigValue("blocksize").(int)); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to process avatar"})
				return
			}
			game.Avatar = sessionID
		}

		if err := sqlite.SaveGame(db, game); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save game"})
			return
		}
		c.JSON(http.StatusOK, gameState(game))
	}
}

// UpdateDirection 处理玩家改变方向
func UpdateDirection(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("sessionid")
		newDirection := c.Query("direction")

		// 验证是否提供了必要的查询参数
		if sessionID == "" || newDirection == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameters: sessionid or direction"})
			return
		}

		// 检查新方向是否合法 非法方向是传输层错误 直接400
		direction := structs.Direction(newDirection)
		if !snake.ValidDirection(direction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid direction '%s' provided", newDirection)})
			return
		}

		game, err := sqlite.LoadGame(db, sessionID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "No game found for the specified sessionid"})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch game"})
			return
		}

		// 原地掉头会被核心逻辑静默忽略 这里不当成错误
		snake.SetDirection(game, direction)
		if err := sqlite.SaveGame(db, game); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update direction"})
			return
		}

		// 返回成功响应
		c.JSON(http.StatusOK, gin.H{"message": "Direction updated successfully"})
	}
}

// StateHandler 推进到当前时间并返回状态JSON
func StateHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("sessionid")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: sessionid"})
			return
		}

		game, err := sqlite.LoadGame(db, sessionID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "No game found for the specified sessionid"})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch game"})
			return
		}

		advanceAndPersist(db, game)
		c.JSON(http.StatusOK, gameState(game))
	}
}

// advanceAndPersist 补跑tick 终局时记一笔排行榜 然后落库
func advanceAndPersist(db *sql.DB, game *structs.Game) {
	wasRunning := game.Status == structs.StatusRunning
	snake.UpdateGameIfNeeded(game, newRng())

	if wasRunning && game.Status != structs.StatusRunning {
		if err := sqlite.InsertHighScore(db, game.SessionID, game.Score); err != nil {
			fmt.Printf("err InsertHighScore :%v\n", err)
		}
	}

	// 持久化
	if err := sqlite.SaveGame(db, game); err != nil {
		fmt.Printf("err SaveGame :%v\n", err)
	}
}

// RenderMapHandler 渲染函数 返回静态地址
func RenderMapHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("sessionid")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: sessionid"})
			return
		}
		avatarUrl, _ := url.QueryUnescape(c.Query("avatarUrl")) // Decode the URL
		foodName := c.DefaultQuery("foodname", "food")

		game, err := sqlite.LoadGame(db, sessionID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "No game found for the specified sessionid"})
			return
		} else if err != nil {
			fmt.Printf("err LoadGame :%v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch game"})
			return
		}

		if avatarUrl != "" {
			// Process and save the avatar
			if err := snake.ProcessAndSaveAvatar(avatarUrl, sessionID, config.GetConfigValue("blocksize").(int)); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to process avatar"})
				return
			}
			game.Avatar = sessionID
			// 背景换了 作废这个会话的缓存层
			drawingCache.Delete(cacheKeyFor(game))
		}

		// 贪食蛇刷新 + 持久化
		advanceAndPersist(db, game)

		// 绘图
		if err := renderImageAndSave(game, foodName); err != nil {
			fmt.Printf("err renderImageAndSave :%v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to render map"})
			return
		}

		imageUrl := fmt.Sprintf("http://%s/static/%s.png", config.GetConfigValue("selfpath").(string), sessionID)
		c.JSON(http.StatusOK, gin.H{"image_url": imageUrl, "score": game.Score, "status": game.Status})
	}
}

// DeleteMapHandler 删除会话和它的渲染结果
func DeleteMapHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("sessionid")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: sessionid"})
			return
		}

		if err := sqlite.DeleteGame(db, sessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete game"})
			return
		}
		// 渲染产物一并清掉 失败无所谓
		os.Remove(fmt.Sprintf("./static/%s.png", sessionID))

		c.JSON(http.StatusOK, gin.H{"message": "Game deleted successfully"})
	}
}

// HighScoresHandler 排行榜前N名
func HighScoresHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if limit <= 0 || limit > 100 {
			limit = 10
		}

		scores, err := sqlite.TopHighScores(db, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch high scores"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"scores": scores})
	}
}

func cacheKeyFor(game *structs.Game) string {
	blockSize := config.GetConfigValue("blocksize").(int)
	return fmt.Sprintf("%s_%s_%d", game.SessionID, game.Avatar, blockSize)
}

// renderImageAndSave 渲染地图并保存为图片
func renderImageAndSave(game *structs.Game, foodName string) error {
	var dc *gg.Context
	// 从配置中读取
	blockSize := config.GetConfigValue("blocksize").(int)
	canvasWidth := game.Width * blockSize
	canvasHeight := game.Height * blockSize

	// 构造缓存键
	cacheKey := cacheKeyFor(game)

	// 尝试从缓存中获取已经绘制好的背景层
	if cachedImg, ok := drawingCache.Load(cacheKey); ok {
		dc = cachedImg.(*gg.Context)
	} else {
		// 如果缓存未命中，创建一个新的绘图上下文
		dc = gg.NewContext(canvasWidth, canvasHeight)
		// 加载并缩放背景图片
		renderAndCacheBackground(dc, game.Avatar, canvasWidth, canvasHeight)

		// 绘制网格等其他元素
		renderGrid(dc, canvasWidth, canvasHeight, blockSize)
		// 将完成的绘图上下文保存到缓存中
		drawingCache.Store(cacheKey, dc)
	}

	// 创建总的画布 背景层先铺上
	finalDC := gg.NewContext(canvasWidth, canvasHeight)
	finalDC.DrawImage(dc.Image(), 0, 0)

	// 蛇身 头单独一个颜色
	positions := game.Snake.Positions
	for i := len(positions) - 1; i >= 1; i-- {
		pos := positions[i]
		finalDC.SetRGB(0.3, 0.3, 0)
		finalDC.DrawRectangle(float64(pos.X*blockSize), float64(pos.Y*blockSize), float64(blockSize), float64(blockSize))
		finalDC.Fill()
	}
	if len(positions) > 0 {
		head := positions[0]
		if img, found := memimg.GetAvatarFromMemory(fmt.Sprintf("%s_small.jpg", game.Avatar)); game.Avatar != "" && found {
			finalDC.DrawImage(img, head.X*blockSize, head.Y*blockSize)
		} else {
			finalDC.SetRGB(1, 0.5, 0)
			finalDC.DrawRectangle(float64(head.X*blockSize), float64(head.Y*blockSize), float64(blockSize), float64(blockSize))
			finalDC.Fill()
		}
	}

	// 食物 有图标用图标 没有就画个蓝块
	if game.Status == structs.StatusRunning {
		foodImg, found := memimg.GetFoodFromMemory(fmt.Sprintf("%s_small.png", foodName))
		if found {
			finalDC.DrawImage(foodImg, game.Food.X*blockSize, game.Food.Y*blockSize)
		} else {
			finalDC.SetRGB(0, 0, 1)
			finalDC.DrawRectangle(float64(game.Food.X*blockSize), float64(game.Food.Y*blockSize), float64(blockSize), float64(blockSize))
			finalDC.Fill()
		}
	}

	// 保存图片
	fileName := fmt.Sprintf("./static/%s.png", game.SessionID)
	os.MkdirAll(filepath.Dir(fileName), os.ModePerm)
	return finalDC.SavePNG(fileName)
}

func scaleImage(img image.Image, newWidth, newHeight int) image.Image {
	dc := gg.NewContext(newWidth, newHeight)
	sx := float64(newWidth) / float64(img.Bounds().Dx())
	sy := float64(newHeight) / float64(img.Bounds().Dy())
	scale := math.Min(sx, sy)
	offsetX := (float64(newWidth) - float64(img.Bounds().Dx())*scale) / 2
	offsetY := (float64(newHeight) - float64(img.Bounds().Dy())*scale) / 2
	dc.Scale(scale, scale)
	dc.DrawImage(img, int(offsetX/scale), int(offsetY/scale))
	return dc.Image()
}

// PreloadAndScaleFoods 预先把食物图标缩放成格子大小 渲染时直接取
func PreloadAndScaleFoods(foodDirectory string, blockSize int) {
	filepath.WalkDir(foodDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".png" {
			name := filepath.Base(path)
			if strings.Contains(name, "_small") {
				// Skip processing if it's already a modified file
				return nil
			}

			scaledName := name[:len(name)-len(filepath.Ext(name))] + "_small.png"
			scaledPath := filepath.Join(foodDirectory, scaledName)

			// Check if the scaled image already exists
			if _, err := os.Stat(scaledPath); os.IsNotExist(err) {
				img, err := memimg.LoadImage(path)
				if err != nil {
					return err
				}
				scaledImg := scaleImage(img, blockSize, blockSize)
				scaledOutFile, err := os.Create(scaledPath)
				if err != nil {
					return err
				}
				defer scaledOutFile.Close()
				if err := png.Encode(scaledOutFile, scaledImg); err != nil {
					return err
				}
				memimg.SetFood(scaledName, scaledImg)
			}
		}
		return nil
	})
}

func renderAndCacheBackground(dc *gg.Context, avatar string, width, height int) {
	backgroundFileName := fmt.Sprintf("%s_blur.jpg", avatar)
	bgImg, found := memimg.GetAvatarFromMemory(backgroundFileName)
	if avatar != "" && found {
		// 缩放并定位背景图像
		bgWidth := float64(bgImg.Bounds().Dx())
		bgHeight := float64(bgImg.Bounds().Dy())
		scale := math.Max(float64(width)/bgWidth, float64(height)/bgHeight)
		dc.Scale(scale, scale)
		offsetX := (float64(width) - bgWidth*scale) / 2.0 / scale
		offsetY := (float64(height) - bgHeight*scale) / 2.0 / scale
		dc.DrawImage(bgImg, int(offsetX), int(offsetY))
	} else {
		dc.SetRGB(1, 1, 1)
		dc.Clear()
	}
	dc.Identity()
}

func renderGrid(dc *gg.Context, width, height, blockSize int) {
	dc.SetRGB(0.9, 0.9, 0.9)
	for x := 0; x <= width; x += blockSize {
		dc.DrawLine(float64(x), 0, float64(x), float64(height))
		dc.Stroke()
	}
	for y := 0; y <= height; y += blockSize {
		dc.DrawLine(0, float64(y), float64(width), float64(y))
		dc.Stroke()
	}
}
