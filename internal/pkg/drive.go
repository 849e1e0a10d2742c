package pkg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
)

const (
	driveUploadURL = "https://www.googleapis.com/upload/drive/v3/files?uploadType=multipart&fields=id"
	driveFilesURL  = "https://www.googleapis.com/drive/v3/files"
)

// DriveFile 上传完成后的文件引用，核心只存这些元信息
type DriveFile struct {
	ID           string
	Size         int64
	DownloadURL  string
	WebViewLink  string
	ThumbnailURL string
}

type driveMeta struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

type driveGetResponse struct {
	WebContentLink string `json:"webContentLink"`
	WebViewLink    string `json:"webViewLink"`
	ThumbnailLink  string `json:"thumbnailLink"`
	Size           string `json:"size"`
}

// UploadToDrive 三步：multipart 上传、放开 anyone-reader 权限、取回链接。
// 调用方负责把错误翻译成 Upstream/Unauthorized。
func UploadToDrive(ctx context.Context, accessToken, filename, mimeType string, content io.Reader) (*DriveFile, error) {
	client := GoogleClient(ctx, accessToken)

	// multipart/related: 第一段元数据 JSON，第二段文件内容
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := w.CreatePart(metaHeader)
	if err != nil {
		return nil, err
	}
	if err := json.NewEncoder(metaPart).Encode(driveMeta{Name: filename, MimeType: mimeType}); err != nil {
		return nil, err
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", mimeType)
	mediaPart, err := w.CreatePart(mediaHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(mediaPart, content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, driveUploadURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+w.Boundary())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &GoogleAPIError{StatusCode: resp.StatusCode}
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("drive upload: decode: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("drive upload: empty file id")
	}

	if err := shareWithAnyone(ctx, client, created.ID); err != nil {
		return nil, err
	}

	return fetchDriveLinks(ctx, client, created.ID)
}

// shareWithAnyone 放开公开只读权限，下载链接才可用
func shareWithAnyone(ctx context.Context, client *http.Client, fileID string) error {
	payload, _ := json.Marshal(map[string]string{"role": "reader", "type": "anyone"})
	url := fmt.Sprintf("%s/%s/permissions", driveFilesURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("drive permissions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &GoogleAPIError{StatusCode: resp.StatusCode}
	}
	return nil
}

func fetchDriveLinks(ctx context.Context, client *http.Client, fileID string) (*DriveFile, error) {
	url := fmt.Sprintf("%s/%s?fields=webContentLink,webViewLink,thumbnailLink,size", driveFilesURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &GoogleAPIError{StatusCode: resp.StatusCode}
	}

	var info driveGetResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("drive get: decode: %w", err)
	}

	size, _ := strconv.ParseInt(info.Size, 10, 64)
	download := info.WebContentLink
	if download == "" {
		download = fmt.Sprintf("https://drive.google.com/uc?export=download&id=%s", fileID)
	}
	return &DriveFile{
		ID:           fileID,
		Size:         size,
		DownloadURL:  download,
		WebViewLink:  info.WebViewLink,
		ThumbnailURL: info.ThumbnailLink,
	}, nil
}

// DeleteFromDrive 尽力而为的物理删除
func DeleteFromDrive(ctx context.Context, accessToken, fileID string) error {
	client := GoogleClient(ctx, accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/%s", driveFilesURL, fileID), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("drive delete: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &GoogleAPIError{StatusCode: resp.StatusCode}
	}
	return nil
}

// FetchBytes 直接拉取（分享 Google Photos 时从 baseUrl 取原图）
func FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
