package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/shouni/gemini-art-studio/pkg/domain"
	"github.com/shouni/gemini-art-studio/pkg/generator"
	"github.com/shouni/gemini-art-studio/pkg/prompt"
)

// ErrBusy は生成処理の多重送信を拒否したことを表します。
// 表示層のボタン無効化に頼らず、コントローラ自身が単一フライトを保証します。
var ErrBusy = errors.New("生成処理が進行中です。完了を待ってください。")

// ユーザー向けの検証メッセージです。
const (
	msgNeedIdea  = "アイデアを入力するか、参照画像を選択してください。"
	msgNeedImage = "編集する画像を選択してください。"
	msgNoResult  = "対象となる生成結果がまだありません。"

	// 空プロンプトの生成結果に付ける履歴ラベルです。
	emptyPromptLabel = "デジタル作品"
)

// Generator は Generation Client の窓口です。
type Generator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Result, error)
}

// HistoryStore は履歴の永続化窓口です。Save はエラーを返さない契約です。
type HistoryStore interface {
	Save(history []domain.GeneratedImage)
	Load() []domain.GeneratedImage
}

// Options は Controller の初期設定です。
type Options struct {
	HistoryLimit   int    // 0以下なら8
	AspectRatio    string // 初期アスペクト比。空なら 1:1
	DownloadPrefix string // 空なら gemini-art
	Sharer         Sharer // nil 許容（共有非対応として動作）
}

// Controller は State を保持し、遷移をミューテータとして公開します。
type Controller struct {
	mu    sync.Mutex
	state State

	gen      Generator
	store    HistoryStore
	limit    int
	prefix   string
	sharer   Sharer
	log      *slog.Logger
	inFlight atomic.Bool

	newID func() string // テスト差し替え用
}

// New は依存関係を注入して Controller を初期化します。
func New(gen Generator, store HistoryStore, opts Options, log *slog.Logger) (*Controller, error) {
	if gen == nil {
		return nil, fmt.Errorf("gen (Generator) is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store (HistoryStore) is required")
	}
	if log == nil {
		log = slog.Default()
	}

	limit := opts.HistoryLimit
	if limit < 1 {
		limit = 8
	}
	aspect := opts.AspectRatio
	if aspect == "" {
		aspect = domain.AspectSquare
	}
	prefix := opts.DownloadPrefix
	if prefix == "" {
		prefix = "gemini-art"
	}

	return &Controller{
		state: State{
			Mode:           domain.ModeCreate,
			ActiveCreateFn: prompt.FnFree,
			ActiveEditFn:   prompt.FnAddRemove,
			AspectRatio:    aspect,
		},
		gen:    gen,
		store:  store,
		limit:  limit,
		prefix: prefix,
		sharer: opts.Sharer,
		log:    log,
		newID:  domain.NewImageID,
	}, nil
}

// State は現在状態のスナップショットを返します。
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// LoadHistory は起動時に保存済み履歴を読み込んで状態へ反映します。
func (c *Controller) LoadHistory() {
	history := c.store.Load()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.History = history
}

// SetPrompt は自由入力テキストを更新します。
func (c *Controller) SetPrompt(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Prompt = text
}

// SetMode はモードを切り替えます。選択済みの参照画像はモードに紐づく
// 一時データなので、切り替え時に破棄します。
func (c *Controller) SetMode(mode domain.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode == mode {
		return
	}
	c.state.Mode = mode
	c.state.Image1 = nil
	c.state.Image2 = nil
	c.state.Error = ""
}

// SetCreateFn は create モードの機能を選択します。
func (c *Controller) SetCreateFn(fn string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ActiveCreateFn = fn
}

// SetEditFn は edit モードの機能を選択します。
func (c *Controller) SetEditFn(fn string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ActiveEditFn = fn
}

// SetImage1 は先頭の参照画像を設定します。nil で解除します。
func (c *Controller) SetImage1(img *domain.ImageFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Image1 = img
}

// SetImage2 は2枚目の参照画像を設定します。nil で解除します。
func (c *Controller) SetImage2(img *domain.ImageFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Image2 = img
}

// SetAspectRatio は出力アスペクト比を設定します。不正値は無視します。
func (c *Controller) SetAspectRatio(ratio string) {
	if !domain.ValidAspectRatio(ratio) {
		c.log.Warn("不正なアスペクト比を無視しました", "ratio", ratio)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.AspectRatio = ratio
}

// Generate は現在の入力で1回の生成を実行します。
//
// 検証はディスパッチ前に同期的に行い、違反時はローディングに入らず
// エラーだけを状態へ残します。成功時は新しい結果を履歴の先頭へ積んで
// 永続化し、失敗時は分類済みメッセージを状態へ残します。どちらの経路でも
// ローディング解除は最後に必ず1回だけ実行されます。
func (c *Controller) Generate(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.inFlight.Store(false)

	c.mu.Lock()
	if msg := validate(c.state); msg != "" {
		c.state.Error = msg
		c.mu.Unlock()
		return errors.New(msg)
	}
	c.state.IsLoading = true
	c.state.Error = ""
	c.state.GeneratedImage = nil
	snapshot := c.state.clone()
	c.mu.Unlock()

	res, err := c.gen.Generate(ctx, generator.Request{
		Prompt:      snapshot.Prompt,
		Mode:        snapshot.Mode,
		CreateFn:    snapshot.ActiveCreateFn,
		EditFn:      snapshot.ActiveEditFn,
		Image1:      snapshot.Image1,
		Image2:      snapshot.Image2,
		AspectRatio: snapshot.AspectRatio,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	// 成否に関わらずローディング解除は必ず1回だけ実行する
	defer func() { c.state.IsLoading = false }()

	if err != nil {
		c.state.Error = err.Error()
		return err
	}

	label := strings.TrimSpace(snapshot.Prompt)
	if label == "" {
		label = emptyPromptLabel
	}
	img := domain.GeneratedImage{
		ID:       c.newID(),
		URL:      res.URL,
		Data:     res.Data,
		MimeType: res.MimeType,
		Prompt:   label,
	}

	history := append([]domain.GeneratedImage{img}, c.state.History...)
	if len(history) > c.limit {
		history = history[:c.limit]
	}
	c.state.GeneratedImage = &img
	c.state.History = history
	c.store.Save(history)
	return nil
}

// validate はディスパッチ前の同期検査です。違反メッセージを返します。
func validate(s State) string {
	switch s.Mode {
	case domain.ModeCreate:
		if s.Image1 == nil && strings.TrimSpace(s.Prompt) == "" {
			return msgNeedIdea
		}
	case domain.ModeEdit:
		if s.Image1 == nil {
			return msgNeedImage
		}
	}
	return ""
}

// EditCurrent は現在の結果を編集対象として引き継ぎます。送信は行いません。
func (c *Controller) EditCurrent() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.state.GeneratedImage
	if cur == nil {
		return errors.New(msgNoResult)
	}
	c.state.Mode = domain.ModeEdit
	c.state.Image1 = &domain.ImageFile{
		Name:       "edit.png",
		Data:       cur.Data,
		MimeType:   cur.MimeType,
		PreviewURL: cur.URL,
	}
	c.state.Image2 = nil
	c.state.Error = ""
	return nil
}

// StylePrompt はスタイル変換に使う固定の指示文を組み立てます。
func StylePrompt(style string) string {
	return fmt.Sprintf("Apply a %s style to this image, keep the subject intact", style)
}

// ApplyStyle は現在の結果を新しい先頭画像として、固定のスタイル指示文で
// 同じ生成経路へ再送信する派生操作です。
func (c *Controller) ApplyStyle(ctx context.Context, style string) error {
	c.mu.Lock()
	cur := c.state.GeneratedImage
	if cur == nil {
		c.mu.Unlock()
		return errors.New(msgNoResult)
	}
	c.state.Mode = domain.ModeEdit
	c.state.ActiveEditFn = prompt.FnStyle
	c.state.Image1 = &domain.ImageFile{
		Name:       "restyle.png",
		Data:       cur.Data,
		MimeType:   cur.MimeType,
		PreviewURL: cur.URL,
	}
	c.state.Image2 = nil
	c.state.Prompt = StylePrompt(style)
	c.mu.Unlock()

	return c.Generate(ctx)
}

// SelectHistoryItem は履歴の1件を現在の結果として表示します。
func (c *Controller) SelectHistoryItem(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.state.History {
		if c.state.History[i].ID == id {
			img := c.state.History[i]
			c.state.GeneratedImage = &img
			c.state.Error = ""
			return nil
		}
	}
	return fmt.Errorf("履歴に見つかりません: %s", id)
}

// DeleteHistoryItem は履歴から1件を取り除き、永続化し直します。
func (c *Controller) DeleteHistoryItem(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	history := make([]domain.GeneratedImage, 0, len(c.state.History))
	for _, img := range c.state.History {
		if img.ID != id {
			history = append(history, img)
		}
	}
	c.state.History = history
	c.store.Save(history)
}
