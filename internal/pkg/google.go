package pkg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	googlePhotosURL   = "https://photoslibrary.googleapis.com/v1/mediaItems"
)

// GoogleUserInfo Google userinfo 接口返回的身份信息
type GoogleUserInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleClient 用委托的 access token 访问 Google API
func GoogleClient(ctx context.Context, accessToken string) *http.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	client := oauth2.NewClient(ctx, ts)
	client.Timeout = 30 * time.Second
	return client
}

// FetchGoogleUserInfo 校验 access token 并取回用户身份。
// token 无效时 Google 返回 401，调用方据此要求重新登录。
func FetchGoogleUserInfo(ctx context.Context, accessToken string) (*GoogleUserInfo, error) {
	client := GoogleClient(ctx, accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo: status %d", resp.StatusCode)
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("google userinfo: decode: %w", err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("google userinfo: empty subject")
	}
	return &info, nil
}

// PhotoItem 转换后的相册条目
type PhotoItem struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mimeType"`
	Description  string `json:"description"`
	CreationTime string `json:"creationTime"`
	Width        string `json:"width"`
	Height       string `json:"height"`
	Thumbnail    string `json:"thumbnail"`
	Medium       string `json:"medium"`
	Full         string `json:"full"`
	IsVideo      bool   `json:"isVideo"`
}

type PhotosPage struct {
	Photos        []PhotoItem `json:"photos"`
	NextPageToken string      `json:"nextPageToken"`
}

type mediaItemsResponse struct {
	MediaItems []struct {
		ID            string `json:"id"`
		Filename      string `json:"filename"`
		MimeType      string `json:"mimeType"`
		Description   string `json:"description"`
		BaseURL       string `json:"baseUrl"`
		MediaMetadata struct {
			CreationTime string `json:"creationTime"`
			Width        string `json:"width"`
			Height       string `json:"height"`
		} `json:"mediaMetadata"`
	} `json:"mediaItems"`
	NextPageToken string `json:"nextPageToken"`
}

// GoogleAPIError 非 200 响应；401/403 表示需要重新授权
type GoogleAPIError struct {
	StatusCode int
}

func (e *GoogleAPIError) Error() string {
	return fmt.Sprintf("google api: status %d", e.StatusCode)
}

func (e *GoogleAPIError) NeedsReauth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// ListGooglePhotos 拉取用户 Google Photos 的缩略图列表
func ListGooglePhotos(ctx context.Context, accessToken string, pageSize int, pageToken string) (*PhotosPage, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}

	q := url.Values{}
	q.Set("pageSize", fmt.Sprintf("%d", pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	client := GoogleClient(ctx, accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googlePhotosURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google photos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &GoogleAPIError{StatusCode: resp.StatusCode}
	}

	var raw mediaItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("google photos: decode: %w", err)
	}

	page := &PhotosPage{NextPageToken: raw.NextPageToken, Photos: make([]PhotoItem, 0, len(raw.MediaItems))}
	for _, item := range raw.MediaItems {
		page.Photos = append(page.Photos, PhotoItem{
			ID:           item.ID,
			Filename:     item.Filename,
			MimeType:     item.MimeType,
			Description:  item.Description,
			CreationTime: item.MediaMetadata.CreationTime,
			Width:        item.MediaMetadata.Width,
			Height:       item.MediaMetadata.Height,
			Thumbnail:    item.BaseURL + "=w200-h200",
			Medium:       item.BaseURL + "=w600-h600",
			Full:         item.BaseURL + "=d",
			IsVideo:      strings.HasPrefix(item.MimeType, "video/"),
		})
	}
	return page, nil
}
