package service

import (
	"aiedu_backend/internal/config"
	"aiedu_backend/internal/model"
	"aiedu_backend/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 旧版 Firestore 文档结构，字段名与前端写入时一致
type fsUser struct {
	Email            string    `firestore:"email"`
	DisplayName      string    `firestore:"displayName"`
	PhotoURL         string    `firestore:"photoURL"`
	Bio              string    `firestore:"bio"`
	Role             string    `firestore:"role"`
	XP               int       `firestore:"xp"`
	Level            int       `firestore:"level"`
	CurrentStreak    int       `firestore:"currentStreak"`
	LongestStreak    int       `firestore:"longestStreak"`
	LastActivityDate time.Time `firestore:"lastActivityDate"`
	LessonsCompleted int       `firestore:"lessonsCompleted"`
	Badges           []string  `firestore:"badges"`
	CreatedAt        time.Time `firestore:"createdAt"`
}

type fsPath struct {
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	Category    string    `firestore:"category"`
	Difficulty  string    `firestore:"difficulty"`
	CoverImage  string    `firestore:"coverImage"`
	Order       int       `firestore:"order"`
	IsPublished bool      `firestore:"isPublished"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

type fsModule struct {
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	Order       int       `firestore:"order"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

type fsLesson struct {
	Title           string                 `firestore:"title"`
	Description     string                 `firestore:"description"`
	Order           int                    `firestore:"order"`
	Duration        int                    `firestore:"duration"`
	XPReward        int                    `firestore:"xpReward"`
	Difficulty      string                 `firestore:"difficulty"`
	Tags            []string               `firestore:"tags"`
	ContentVersions map[string]interface{} `firestore:"contentVersions"`
	SourceDraftID   string                 `firestore:"draftId"`
	PublishedAt     time.Time              `firestore:"publishedAt"`
	CreatedAt       time.Time              `firestore:"createdAt"`
}

type fsDraft struct {
	Title             string                 `firestore:"title"`
	Description       string                 `firestore:"description"`
	AuthorID          string                 `firestore:"authorId"`
	PathID            string                 `firestore:"pathId"`
	ModuleID          string                 `firestore:"moduleId"`
	Difficulty        string                 `firestore:"difficulty"`
	Duration          int                    `firestore:"duration"`
	XPReward          int                    `firestore:"xpReward"`
	Tags              []string               `firestore:"tags"`
	ContentVersions   map[string]interface{} `firestore:"contentVersions"`
	Version           int                    `firestore:"version"`
	Status            string                 `firestore:"status"`
	PublishedLessonID string                 `firestore:"publishedLessonId"`
	PublishedAt       time.Time              `firestore:"publishedAt"`
	CreatedAt         time.Time              `firestore:"createdAt"`
	UpdatedAt         time.Time              `firestore:"updatedAt"`
}

type fsProgress struct {
	UserID      string    `firestore:"userId"`
	LessonID    string    `firestore:"lessonId"`
	PathID      string    `firestore:"pathId"`
	ModuleID    string    `firestore:"moduleId"`
	Progress    int       `firestore:"progress"`
	Completed   bool      `firestore:"completed"`
	Score       int       `firestore:"score"`
	TimeSpent   int       `firestore:"timeSpent"`
	StartedAt   time.Time `firestore:"startedAt"`
	CompletedAt time.Time `firestore:"completedAt"`
}

type fsNews struct {
	Title       string    `firestore:"title"`
	Link        string    `firestore:"link"`
	Description string    `firestore:"description"`
	Author      string    `firestore:"author"`
	Source      string    `firestore:"source"`
	Category    string    `firestore:"category"`
	Thumbnail   string    `firestore:"thumbnail"`
	PublishedAt time.Time `firestore:"pubDate"`
	Likes       int       `firestore:"likes"`
	LikedBy     []string  `firestore:"likedBy"`
}

// ImportStats 每个集合导入和失败的文档数
type ImportStats struct {
	Users    int `json:"users"`
	Paths    int `json:"paths"`
	Modules  int `json:"modules"`
	Lessons  int `json:"lessons"`
	Drafts   int `json:"drafts"`
	Progress int `json:"progress"`
	News     int `json:"news"`
	Failed   int `json:"failed"`
}

// FirestoreImportService 从旧版 Firestore 集合导入数据，按文档 ID upsert，可重复执行
type FirestoreImportService struct {
	DB     *gorm.DB
	Client *firestore.Client
}

func NewFirestoreImportService(ctx context.Context, db *gorm.DB, cfg config.FirebaseConfig) (*FirestoreImportService, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase project id is not configured")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &FirestoreImportService{DB: db, Client: client}, nil
}

func (s *FirestoreImportService) Close() error {
	return s.Client.Close()
}

func (s *FirestoreImportService) upsert(ctx context.Context, value interface{}) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}

// eachDoc 遍历集合中的文档
func eachDoc(ctx context.Context, it *firestore.DocumentIterator, fn func(doc *firestore.DocumentSnapshot) error) error {
	defer it.Stop()
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}

func (s *FirestoreImportService) Import(ctx context.Context) (*ImportStats, error) {
	stats := &ImportStats{}
	steps := []struct {
		name string
		fn   func(context.Context, *ImportStats) error
	}{
		{"users", s.importUsers},
		{"learningPaths", s.importPaths},
		{"drafts", s.importDrafts},
		{"userProgress", s.importProgress},
		{"aiNews", s.importNews},
	}
	for _, step := range steps {
		if err := step.fn(ctx, stats); err != nil {
			return stats, fmt.Errorf("import %s: %w", step.name, err)
		}
		logger.Log.Info("Firestore collection imported", zap.String("collection", step.name))
	}
	return stats, nil
}

// skip 单个文档转换失败时记录并跳过
func skip(stats *ImportStats, doc *firestore.DocumentSnapshot, err error) {
	stats.Failed++
	logger.Log.Warn("Skipping firestore document", zap.String("path", doc.Ref.Path), zap.Error(err))
}

func (s *FirestoreImportService) importUsers(ctx context.Context, stats *ImportStats) error {
	return eachDoc(ctx, s.Client.Collection("users").Documents(ctx), func(doc *firestore.DocumentSnapshot) error {
		var fu fsUser
		if err := doc.DataTo(&fu); err != nil {
			skip(stats, doc, err)
			return nil
		}
		if err := s.upsert(ctx, convertUser(doc.Ref.ID, fu)); err != nil {
			return err
		}
		stats.Users++
		return nil
	})
}

func (s *FirestoreImportService) importPaths(ctx context.Context, stats *ImportStats) error {
	return eachDoc(ctx, s.Client.Collection("learningPaths").Documents(ctx), func(pathDoc *firestore.DocumentSnapshot) error {
		var fp fsPath
		if err := pathDoc.DataTo(&fp); err != nil {
			skip(stats, pathDoc, err)
			return nil
		}
		if err := s.upsert(ctx, convertPath(pathDoc.Ref.ID, fp)); err != nil {
			return err
		}
		stats.Paths++

		return eachDoc(ctx, pathDoc.Ref.Collection("modules").Documents(ctx), func(modDoc *firestore.DocumentSnapshot) error {
			var fm fsModule
			if err := modDoc.DataTo(&fm); err != nil {
				skip(stats, modDoc, err)
				return nil
			}
			if err := s.upsert(ctx, convertModule(pathDoc.Ref.ID, modDoc.Ref.ID, fm)); err != nil {
				return err
			}
			stats.Modules++

			return eachDoc(ctx, modDoc.Ref.Collection("lessons").Documents(ctx), func(lessonDoc *firestore.DocumentSnapshot) error {
				var fl fsLesson
				if err := lessonDoc.DataTo(&fl); err != nil {
					skip(stats, lessonDoc, err)
					return nil
				}
				lesson, err := convertLesson(pathDoc.Ref.ID, modDoc.Ref.ID, lessonDoc.Ref.ID, fl)
				if err != nil {
					skip(stats, lessonDoc, err)
					return nil
				}
				if err := s.upsert(ctx, lesson); err != nil {
					return err
				}
				stats.Lessons++
				return nil
			})
		})
	})
}

func (s *FirestoreImportService) importDrafts(ctx context.Context, stats *ImportStats) error {
	return eachDoc(ctx, s.Client.Collection("drafts").Documents(ctx), func(doc *firestore.DocumentSnapshot) error {
		var fd fsDraft
		if err := doc.DataTo(&fd); err != nil {
			skip(stats, doc, err)
			return nil
		}
		draft, err := convertDraft(doc.Ref.ID, fd)
		if err != nil {
			skip(stats, doc, err)
			return nil
		}
		if err := s.upsert(ctx, draft); err != nil {
			return err
		}
		stats.Drafts++
		return nil
	})
}

func (s *FirestoreImportService) importProgress(ctx context.Context, stats *ImportStats) error {
	return eachDoc(ctx, s.Client.Collection("userProgress").Documents(ctx), func(doc *firestore.DocumentSnapshot) error {
		var fp fsProgress
		if err := doc.DataTo(&fp); err != nil {
			skip(stats, doc, err)
			return nil
		}
		p, err := convertProgress(doc.Ref.ID, fp)
		if err != nil {
			skip(stats, doc, err)
			return nil
		}
		if err := s.upsert(ctx, p); err != nil {
			return err
		}
		stats.Progress++
		return nil
	})
}

func (s *FirestoreImportService) importNews(ctx context.Context, stats *ImportStats) error {
	return eachDoc(ctx, s.Client.Collection("aiNews").Documents(ctx), func(doc *firestore.DocumentSnapshot) error {
		var fn fsNews
		if err := doc.DataTo(&fn); err != nil {
			skip(stats, doc, err)
			return nil
		}
		article, likes := convertNews(doc.Ref.ID, fn)
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&article).Error; err != nil {
				return err
			}
			if len(likes) == 0 {
				return nil
			}
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&likes).Error
		})
		if err != nil {
			return err
		}
		stats.News++
		return nil
	})
}

// ---------- 文档转换 ----------

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// decodeContent 把 Firestore 中的 map 转为强类型内容，未知块类型会报错
func decodeContent(raw map[string]interface{}) (model.ContentVersions, error) {
	var cv model.ContentVersions
	if len(raw) == 0 {
		return cv, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return cv, err
	}
	err = json.Unmarshal(data, &cv)
	return cv, err
}

func convertUser(id string, fu fsUser) *model.User {
	role := model.UserRole(strings.ToLower(fu.Role))
	if !role.Valid() {
		role = model.Student
	}
	level := fu.Level
	if level <= 0 {
		level = LevelForXP(fu.XP)
	}
	return &model.User{
		ID:               id,
		Email:            strings.ToLower(fu.Email),
		Provider:         model.ProviderGoogle,
		DisplayName:      fu.DisplayName,
		PhotoURL:         fu.PhotoURL,
		Bio:              fu.Bio,
		Role:             role,
		XP:               fu.XP,
		Level:            level,
		CurrentStreak:    fu.CurrentStreak,
		LongestStreak:    fu.LongestStreak,
		LastActivityDate: timePtr(fu.LastActivityDate),
		LessonsCompleted: fu.LessonsCompleted,
		Badges:           fu.Badges,
		CreatedAt:        fu.CreatedAt,
	}
}

func convertPath(id string, fp fsPath) *model.LearningPath {
	p := &model.LearningPath{
		Title:       fp.Title,
		Slug:        slug.Make(fp.Title),
		Description: fp.Description,
		Category:    fp.Category,
		Difficulty:  fp.Difficulty,
		CoverImage:  fp.CoverImage,
		Order:       fp.Order,
		IsPublished: fp.IsPublished,
	}
	p.ID = id
	p.CreatedAt = fp.CreatedAt
	return p
}

func convertModule(pathID, id string, fm fsModule) *model.PathModule {
	m := &model.PathModule{
		PathID:      pathID,
		Title:       fm.Title,
		Description: fm.Description,
		Order:       fm.Order,
	}
	m.ID = id
	m.CreatedAt = fm.CreatedAt
	return m
}

func convertLesson(pathID, moduleID, id string, fl fsLesson) (*model.Lesson, error) {
	cv, err := decodeContent(fl.ContentVersions)
	if err != nil {
		return nil, err
	}
	l := &model.Lesson{
		PathID:          pathID,
		ModuleID:        moduleID,
		Title:           fl.Title,
		Description:     fl.Description,
		Order:           fl.Order,
		Duration:        fl.Duration,
		XPReward:        fl.XPReward,
		Difficulty:      fl.Difficulty,
		Tags:            fl.Tags,
		ContentVersions: datatypes.NewJSONType(cv),
		SourceDraftID:   fl.SourceDraftID,
		PublishedAt:     timePtr(fl.PublishedAt),
	}
	l.ID = id
	l.CreatedAt = fl.CreatedAt
	return l, nil
}

func convertDraft(id string, fd fsDraft) (*model.Draft, error) {
	cv, err := decodeContent(fd.ContentVersions)
	if err != nil {
		return nil, err
	}
	status := model.DraftStatus(fd.Status)
	if status != model.DraftPublished {
		status = model.DraftEditing
	}
	version := fd.Version
	if version <= 0 {
		version = 1
	}
	d := &model.Draft{
		ID:                id,
		Title:             fd.Title,
		Description:       fd.Description,
		AuthorID:          fd.AuthorID,
		PathID:            fd.PathID,
		ModuleID:          fd.ModuleID,
		Difficulty:        fd.Difficulty,
		Duration:          fd.Duration,
		XPReward:          fd.XPReward,
		Tags:              fd.Tags,
		Version:           version,
		Status:            status,
		PublishedLessonID: fd.PublishedLessonID,
		PublishedAt:       timePtr(fd.PublishedAt),
		CreatedAt:         fd.CreatedAt,
		UpdatedAt:         fd.UpdatedAt,
	}
	d.SetContent(cv)
	return d, nil
}

func convertProgress(id string, fp fsProgress) (*model.UserProgress, error) {
	userID, lessonID := fp.UserID, fp.LessonID
	if userID == "" || lessonID == "" {
		i := strings.Index(id, "_")
		if i <= 0 || i == len(id)-1 {
			return nil, fmt.Errorf("cannot derive user and lesson from %q", id)
		}
		userID, lessonID = id[:i], id[i+1:]
	}
	return &model.UserProgress{
		ID:          model.ProgressID(userID, lessonID),
		UserID:      userID,
		LessonID:    lessonID,
		PathID:      fp.PathID,
		ModuleID:    fp.ModuleID,
		Progress:    fp.Progress,
		Completed:   fp.Completed,
		Score:       fp.Score,
		TimeSpent:   fp.TimeSpent,
		StartedAt:   fp.StartedAt,
		CompletedAt: timePtr(fp.CompletedAt),
	}, nil
}

func convertNews(id string, fn fsNews) (model.NewsArticle, []model.NewsLike) {
	article := model.NewsArticle{
		ID:          id,
		Title:       fn.Title,
		Link:        fn.Link,
		Description: fn.Description,
		Author:      fn.Author,
		Source:      fn.Source,
		Category:    fn.Category,
		Thumbnail:   fn.Thumbnail,
		PublishedAt: fn.PublishedAt,
		Likes:       fn.Likes,
		FetchedAt:   time.Now(),
	}
	seen := make(map[string]bool)
	var likes []model.NewsLike
	for _, uid := range fn.LikedBy {
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		likes = append(likes, model.NewsLike{ArticleID: id, UserID: uid})
	}
	if len(likes) > article.Likes {
		article.Likes = len(likes)
	}
	return article, likes
}
