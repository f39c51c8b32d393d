package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
)

const drivePageSize = 1000

type driveConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURL  string `json:"redirect_url"`
	RefreshToken string `json:"refresh_token"`
}

// driveStore keeps documents as files inside one Drive folder. Drive has no
// conditional upload, so version checks and writes for a name are serialized
// inside this process only.
type driveStore struct {
	files    *drive.FilesService
	folder   string
	locks    *keyedMutex
	pageSize int64
}

func init() {
	Register("drive", createDriveStore)
}

func createDriveStore(args interface{}, container string) (Store, error) {
	config := &driveConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.ClientID == "" || config.ClientSecret == "" || config.RefreshToken == "" {
		return nil, fmt.Errorf("drive client_id/client_secret/refresh_token are required")
	}
	oauthConfig := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveScope},
	}
	ctx := context.Background()
	tokenSource := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: config.RefreshToken})
	svc, err := drive.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("init drive service: %w", err)
	}
	return newDriveStore(svc, container), nil
}

func newDriveStore(svc *drive.Service, folder string) *driveStore {
	return &driveStore{files: svc.Files, folder: folder, locks: newKeyedMutex(), pageSize: drivePageSize}
}

func escapeQuery(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

func (s *driveStore) find(ctx context.Context, name string) (*drive.File, error) {
	q := fmt.Sprintf("name='%s' and '%s' in parents and trashed=false", escapeQuery(name), escapeQuery(s.folder))
	res, err := s.files.List().
		Q(q).
		Fields("files(id, name, version)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyDriveError(err)
	}
	if len(res.Files) == 0 {
		return nil, appErr.ErrNotFound
	}
	return res.Files[0], nil
}

func (s *driveStore) Get(ctx context.Context, name string) (*Document, error) {
	file, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}
	resp, err := s.files.Get(file.Id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, classifyDriveError(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read drive file %s: %w", name, err)
	}
	return &Document{Name: name, Data: data, Version: strconv.FormatInt(file.Version, 10)}, nil
}

func (s *driveStore) Create(ctx context.Context, name string, data []byte) (*Document, error) {
	if !validName(name) {
		return nil, fmt.Errorf("invalid document name %q: %w", name, appErr.ErrInvalid)
	}
	unlock := s.locks.lock(name)
	defer unlock()
	if _, err := s.find(ctx, name); err == nil {
		return nil, appErr.ErrConflict
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}
	meta := &drive.File{
		Name:     name,
		Parents:  []string{s.folder},
		MimeType: "application/json",
	}
	created, err := s.files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType("application/json")).
		Fields("id, name, version").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyDriveError(err)
	}
	return &Document{Name: name, Data: data, Version: strconv.FormatInt(created.Version, 10)}, nil
}

func (s *driveStore) Update(ctx context.Context, name string, data []byte, version string) (*Document, error) {
	unlock := s.locks.lock(name)
	defer unlock()
	file, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}
	if strconv.FormatInt(file.Version, 10) != version {
		return nil, appErr.ErrConflict
	}
	updated, err := s.files.Update(file.Id, &drive.File{}).
		Media(bytes.NewReader(data), googleapi.ContentType("application/json")).
		Fields("id, version").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyDriveError(err)
	}
	return &Document{Name: name, Data: data, Version: strconv.FormatInt(updated.Version, 10)}, nil
}

func (s *driveStore) Delete(ctx context.Context, name string) error {
	unlock := s.locks.lock(name)
	defer unlock()
	file, err := s.find(ctx, name)
	if err != nil {
		return err
	}
	if err := s.files.Delete(file.Id).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return classifyDriveError(err)
	}
	return nil
}

func (s *driveStore) List(ctx context.Context, pageToken string) (*Page, error) {
	call := s.files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(s.folder))).
		Fields("nextPageToken, files(id, name)").
		PageSize(s.pageSize).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Do()
	if err != nil {
		return nil, classifyDriveError(err)
	}
	page := &Page{Names: make([]string, 0, len(res.Files)), NextPageToken: res.NextPageToken}
	for _, f := range res.Files {
		page.Names = append(page.Names, f.Name)
	}
	return page, nil
}

func classifyDriveError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %v", appErr.ErrNotFound, err)
	}
	return err
}
