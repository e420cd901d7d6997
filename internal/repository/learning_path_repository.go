package repository

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/util"
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"
)

type LearningPathRepository struct {
	DB *gorm.DB
}

func NewLearningPathRepository(db *gorm.DB) *LearningPathRepository {
	return &LearningPathRepository{DB: db}
}

func (r *LearningPathRepository) WithTx(tx *gorm.DB) *LearningPathRepository {
	return &LearningPathRepository{DB: tx}
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// ---------- learning paths ----------

func (r *LearningPathRepository) CreatePath(ctx context.Context, path *model.LearningPath) error {
	return r.DB.WithContext(ctx).Create(path).Error
}

func (r *LearningPathRepository) SavePath(ctx context.Context, path *model.LearningPath) error {
	return r.DB.WithContext(ctx).Omit("Modules").Save(path).Error
}

func (r *LearningPathRepository) FindPathByID(ctx context.Context, id string) (*model.LearningPath, error) {
	var p model.LearningPath
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, util.ErrPathNotFound)
	}
	return &p, nil
}

// FindPathTree 加载路径及其模块、课程（按 order 排序）
func (r *LearningPathRepository) FindPathTree(ctx context.Context, id string) (*model.LearningPath, error) {
	var p model.LearningPath
	err := r.DB.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("`order` asc, created_at asc") }).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("`order` asc, created_at asc") }).
		Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, notFound(err, util.ErrPathNotFound)
	}
	return &p, nil
}

func (r *LearningPathRepository) ListPaths(ctx context.Context, publishedOnly bool) ([]model.LearningPath, error) {
	var ps []model.LearningPath
	query := r.DB.WithContext(ctx).Model(&model.LearningPath{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	err := query.Order("`order` asc, created_at desc").Find(&ps).Error
	return ps, err
}

// DeletePathCascade 删除路径及其全部模块和课程，调用方负责开启事务
func (r *LearningPathRepository) DeletePathCascade(ctx context.Context, id string) (modules int64, lessons int64, err error) {
	db := r.DB.WithContext(ctx)

	res := db.Where("path_id = ? OR module_id IN (?)", id,
		r.DB.Model(&model.PathModule{}).Select("id").Where("path_id = ?", id)).Delete(&model.Lesson{})
	if res.Error != nil {
		return 0, 0, res.Error
	}
	lessons = res.RowsAffected

	res = db.Where("path_id = ?", id).Delete(&model.PathModule{})
	if res.Error != nil {
		return 0, 0, res.Error
	}
	modules = res.RowsAffected

	res = db.Where("id = ?", id).Delete(&model.LearningPath{})
	if res.Error != nil {
		return 0, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, 0, util.ErrPathNotFound
	}
	return modules, lessons, nil
}

// ---------- modules ----------

func (r *LearningPathRepository) CreateModule(ctx context.Context, m *model.PathModule) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *LearningPathRepository) SaveModule(ctx context.Context, m *model.PathModule) error {
	return r.DB.WithContext(ctx).Omit("Lessons").Save(m).Error
}

func (r *LearningPathRepository) FindModule(ctx context.Context, pathID, moduleID string) (*model.PathModule, error) {
	var m model.PathModule
	if err := r.DB.WithContext(ctx).Where("id = ? AND path_id = ?", moduleID, pathID).First(&m).Error; err != nil {
		return nil, notFound(err, util.ErrModuleNotFound)
	}
	return &m, nil
}

func (r *LearningPathRepository) ListModules(ctx context.Context, pathID string) ([]model.PathModule, error) {
	var ms []model.PathModule
	err := r.DB.WithContext(ctx).Where("path_id = ?", pathID).Order("`order` asc, created_at asc").Find(&ms).Error
	return ms, err
}

func (r *LearningPathRepository) NextModuleOrder(ctx context.Context, pathID string) (int, error) {
	var max sql.NullInt64
	err := r.DB.WithContext(ctx).Model(&model.PathModule{}).Where("path_id = ?", pathID).Select("MAX(`order`)").Scan(&max).Error
	if err != nil || !max.Valid {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

func (r *LearningPathRepository) DeleteModuleCascade(ctx context.Context, pathID, moduleID string) (lessons int64, err error) {
	db := r.DB.WithContext(ctx)
	res := db.Where("module_id = ?", moduleID).Delete(&model.Lesson{})
	if res.Error != nil {
		return 0, res.Error
	}
	lessons = res.RowsAffected

	res = db.Where("id = ? AND path_id = ?", moduleID, pathID).Delete(&model.PathModule{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, util.ErrModuleNotFound
	}
	return lessons, nil
}

// ---------- lessons ----------

func (r *LearningPathRepository) SaveLesson(ctx context.Context, l *model.Lesson) error {
	return r.DB.WithContext(ctx).Save(l).Error
}

func (r *LearningPathRepository) CreateLesson(ctx context.Context, l *model.Lesson) error {
	return r.DB.WithContext(ctx).Create(l).Error
}

func (r *LearningPathRepository) FindLesson(ctx context.Context, lessonID string) (*model.Lesson, error) {
	var l model.Lesson
	if err := r.DB.WithContext(ctx).Where("id = ?", lessonID).First(&l).Error; err != nil {
		return nil, notFound(err, util.ErrLessonNotFound)
	}
	return &l, nil
}

func (r *LearningPathRepository) ListLessons(ctx context.Context, moduleID string) ([]model.Lesson, error) {
	var ls []model.Lesson
	err := r.DB.WithContext(ctx).Where("module_id = ?", moduleID).Order("`order` asc, created_at asc").Find(&ls).Error
	return ls, err
}

func (r *LearningPathRepository) NextLessonOrder(ctx context.Context, moduleID string) (int, error) {
	var max sql.NullInt64
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).Where("module_id = ?", moduleID).Select("MAX(`order`)").Scan(&max).Error
	if err != nil || !max.Valid {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

func (r *LearningPathRepository) DeleteLesson(ctx context.Context, lessonID string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", lessonID).Delete(&model.Lesson{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrLessonNotFound
	}
	return nil
}

// ---------- orphans ----------

// FindOrphanModuleIDs 所属路径已不存在的模块
func (r *LearningPathRepository) FindOrphanModuleIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.PathModule{}).
		Where("path_id NOT IN (?)", r.DB.Model(&model.LearningPath{}).Select("id")).
		Pluck("id", &ids).Error
	return ids, err
}

// FindOrphanLessonIDs 所属模块或路径已不存在的课程
func (r *LearningPathRepository) FindOrphanLessonIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).
		Where("module_id NOT IN (?) OR path_id NOT IN (?)",
			r.DB.Model(&model.PathModule{}).Select("id"),
			r.DB.Model(&model.LearningPath{}).Select("id")).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *LearningPathRepository) DeleteModulesByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&model.PathModule{})
	return res.RowsAffected, res.Error
}

// LessonIDsInPath 路径下全部课程 ID（包括挂在该路径模块下的）
func (r *LearningPathRepository) LessonIDsInPath(ctx context.Context, pathID string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).
		Where("path_id = ? OR module_id IN (?)", pathID,
			r.DB.Model(&model.PathModule{}).Select("id").Where("path_id = ?", pathID)).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *LearningPathRepository) LessonIDsInModule(ctx context.Context, moduleID string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).Where("module_id = ?", moduleID).Pluck("id", &ids).Error
	return ids, err
}

func (r *LearningPathRepository) DeleteLessonsByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Lesson{})
	return res.RowsAffected, res.Error
}

func (r *LearningPathRepository) CountTree(ctx context.Context, pathID string) (modules int64, lessons int64, err error) {
	db := r.DB.WithContext(ctx)
	if err = db.Model(&model.PathModule{}).Where("path_id = ?", pathID).Count(&modules).Error; err != nil {
		return
	}
	err = db.Model(&model.Lesson{}).Where("path_id = ?", pathID).Count(&lessons).Error
	return
}
