package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/repository"
	"github.com/maheshrc27/omni-publisher/internal/storage"
	"github.com/maheshrc27/omni-publisher/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/samber/lo"
)

var allowedVideoTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "webm": {}, "m4v": {},
}

type PostService interface {
	CreatePost(ctx context.Context, clientID int64, pc *transfer.PostCreation) (int64, time.Duration, error)
	ListPending(ctx context.Context, clientID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, clientID int64) (*transfer.PostDetail, error)
	UploadMedia(ctx context.Context, clientID int64, file *multipart.FileHeader) (*transfer.MediaUploaded, error)
}

type postService struct {
	pr    repository.PostRepository
	rr    repository.PlatformResultRepository
	blobs storage.BlobStore
}

func NewPostService(pr repository.PostRepository, rr repository.PlatformResultRepository, blobs storage.BlobStore) PostService {
	return &postService{
		pr:    pr,
		rr:    rr,
		blobs: blobs,
	}
}

func mediaKeyPrefix(clientID int64) string {
	return strconv.FormatInt(clientID, 10) + "/"
}

func (s *postService) CreatePost(ctx context.Context, clientID int64, pc *transfer.PostCreation) (int64, time.Duration, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, 0, err
	}

	// Media keys are namespaced by the uploading client.
	if !strings.HasPrefix(pc.VideoFileID, mediaKeyPrefix(clientID)) {
		slog.Info("post references foreign media", "client_id", clientID, "key", pc.VideoFileID)
		return 0, 0, fmt.Errorf("%w: %s", ErrForeignMedia, pc.VideoFileID)
	}

	platforms := make([]string, 0, len(pc.Platforms))
	for _, name := range lo.Uniq(pc.Platforms) {
		p, err := models.ParsePlatform(name)
		if err != nil {
			slog.Info(err.Error())
			return 0, 0, fmt.Errorf("%w: %s", ErrUnknownPlatform, name)
		}
		platforms = append(platforms, string(p))
	}
	platforms = lo.Uniq(platforms)

	title := pc.Title
	if title == "" {
		title = SmartTitle(pc.Description)
	}

	post := models.Post{
		ClientID:      clientID,
		VideoFileID:   pc.VideoFileID,
		Title:         title,
		Description:   pc.Description,
		Platforms:     platforms,
		ScheduledTime: pc.ScheduledTime.UTC(),
		Status:        models.PostStatusPending,
	}

	postID, err := s.pr.Create(ctx, &post)
	if err != nil {
		return 0, 0, fmt.Errorf("error creating post: %w", err)
	}

	delay := time.Until(post.ScheduledTime)
	if delay < 0 {
		delay = 0
	}

	return postID, delay, nil
}

func (s *postService) ListPending(ctx context.Context, clientID int64) ([]*models.Post, error) {
	return s.pr.ListPending(ctx, clientID)
}

func (s *postService) PostInfo(ctx context.Context, postID, clientID int64) (*transfer.PostDetail, error) {
	if postID == 0 {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.ClientID != clientID {
		return nil, nil
	}

	results, err := s.rr.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &transfer.PostDetail{Post: post, Results: results}, nil
}

func (s *postService) UploadMedia(ctx context.Context, clientID int64, file *multipart.FileHeader) (*transfer.MediaUploaded, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(head[:n])
	if err != nil || fileType == types.Unknown {
		return nil, fmt.Errorf("unsupported file type")
	}
	if _, ok := allowedVideoTypes[fileType.Extension]; !ok {
		return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		log.Println(err.Error())
		return nil, err
	}
	key := fmt.Sprintf("%s%s.%s", mediaKeyPrefix(clientID), id, fileType.Extension)

	if err := s.blobs.Store(ctx, key, f, file.Size, fileType.MIME.Value); err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	return &transfer.MediaUploaded{Key: key, Type: fileType.MIME.Value}, nil
}
