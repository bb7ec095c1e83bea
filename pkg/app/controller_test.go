package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-art-studio/pkg/domain"
	"github.com/shouni/gemini-art-studio/pkg/generator"
	"github.com/shouni/gemini-art-studio/pkg/prompt"
)

// --- Mocks ---

type mockGenerator struct {
	generateFunc func(ctx context.Context, req generator.Request) (*generator.Result, error)
	calls        int
	lastReq      generator.Request
}

func (m *mockGenerator) Generate(ctx context.Context, req generator.Request) (*generator.Result, error) {
	m.calls++
	m.lastReq = req
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return &generator.Result{
		URL:      "data:image/png;base64,ZmFrZQ==",
		Data:     []byte("fake"),
		MimeType: "image/png",
	}, nil
}

type mockStore struct {
	saved   [][]domain.GeneratedImage
	initial []domain.GeneratedImage
}

func (m *mockStore) Save(history []domain.GeneratedImage) {
	snapshot := make([]domain.GeneratedImage, len(history))
	copy(snapshot, history)
	m.saved = append(m.saved, snapshot)
}

func (m *mockStore) Load() []domain.GeneratedImage {
	return m.initial
}

type mockSharer struct {
	err   error
	calls int
}

func (m *mockSharer) Share(ctx context.Context, title, text string, image domain.GeneratedImage) error {
	m.calls++
	return m.err
}

// --- Helpers ---

func newTestController(t *testing.T, gen *mockGenerator, store *mockStore, opts Options) *Controller {
	t.Helper()
	c, err := New(gen, store, opts, nil)
	require.NoError(t, err)
	seq := 0
	c.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return c
}

// --- Tests ---

func TestNew(t *testing.T) {
	t.Run("nilチェック: 依存関係が足りない場合はエラーを返すのだ", func(t *testing.T) {
		_, err := New(nil, &mockStore{}, Options{}, nil)
		assert.Error(t, err)
		_, err = New(&mockGenerator{}, nil, Options{}, nil)
		assert.Error(t, err)
	})

	t.Run("初期状態は create モードの既定機能なのだ", func(t *testing.T) {
		c := newTestController(t, &mockGenerator{}, &mockStore{}, Options{})
		st := c.State()
		assert.Equal(t, domain.ModeCreate, st.Mode)
		assert.Equal(t, prompt.FnFree, st.ActiveCreateFn)
		assert.Equal(t, prompt.FnAddRemove, st.ActiveEditFn)
		assert.Equal(t, domain.AspectSquare, st.AspectRatio)
		assert.False(t, st.IsLoading)
	})
}

func TestController_Generate_ValidationGating(t *testing.T) {
	ctx := context.Background()

	t.Run("create で入力も画像もなければ送信しないのだ", func(t *testing.T) {
		gen := &mockGenerator{}
		c := newTestController(t, gen, &mockStore{}, Options{})

		err := c.Generate(ctx)

		assert.Error(t, err)
		assert.Equal(t, 0, gen.calls, "generate must never be dispatched")
		st := c.State()
		assert.False(t, st.IsLoading)
		assert.Equal(t, msgNeedIdea, st.Error)
	})

	t.Run("edit で先頭画像がなければ送信しないのだ", func(t *testing.T) {
		gen := &mockGenerator{}
		c := newTestController(t, gen, &mockStore{}, Options{})
		c.SetMode(domain.ModeEdit)
		c.SetPrompt("make it blue")

		err := c.Generate(ctx)

		assert.Error(t, err)
		assert.Equal(t, 0, gen.calls)
		st := c.State()
		assert.False(t, st.IsLoading)
		assert.Equal(t, msgNeedImage, st.Error)
	})

	t.Run("create は画像だけでも送信できるのだ", func(t *testing.T) {
		gen := &mockGenerator{}
		c := newTestController(t, gen, &mockStore{}, Options{})
		c.SetImage1(&domain.ImageFile{Data: []byte("ref"), MimeType: "image/png"})

		require.NoError(t, c.Generate(ctx))
		assert.Equal(t, 1, gen.calls)
	})
}

func TestController_Generate_Success(t *testing.T) {
	ctx := context.Background()

	t.Run("成功した結果は現在結果と履歴先頭に反映されるのだ", func(t *testing.T) {
		gen := &mockGenerator{}
		store := &mockStore{}
		c := newTestController(t, gen, store, Options{})
		c.SetPrompt("  a red fox  ")

		require.NoError(t, c.Generate(ctx))

		st := c.State()
		require.NotNil(t, st.GeneratedImage)
		assert.Equal(t, "a red fox", st.GeneratedImage.Prompt)
		assert.Equal(t, []byte("fake"), st.GeneratedImage.Data)
		assert.False(t, st.IsLoading)
		assert.Empty(t, st.Error)

		require.Len(t, st.History, 1)
		assert.Equal(t, st.GeneratedImage.ID, st.History[0].ID)
		// 保存は新しい履歴で1回呼ばれるのだ
		require.Len(t, store.saved, 1)
		assert.Equal(t, st.History[0].ID, store.saved[0][0].ID)
	})

	t.Run("空プロンプトの成功には既定ラベルが付くのだ", func(t *testing.T) {
		gen := &mockGenerator{}
		c := newTestController(t, gen, &mockStore{}, Options{})
		c.SetImage1(&domain.ImageFile{Data: []byte("ref"), MimeType: "image/png"})

		require.NoError(t, c.Generate(ctx))
		assert.Equal(t, emptyPromptLabel, c.State().GeneratedImage.Prompt)
	})

	t.Run("履歴は上限件数で最新優先に切り詰められるのだ", func(t *testing.T) {
		gen := &mockGenerator{}
		store := &mockStore{}
		c := newTestController(t, gen, store, Options{HistoryLimit: 3})
		c.SetPrompt("subject")

		for i := 0; i < 5; i++ {
			require.NoError(t, c.Generate(ctx))
		}

		st := c.State()
		require.Len(t, st.History, 3)
		// 先頭が常に直近の結果なのだ
		assert.Equal(t, "id-5", st.History[0].ID)
		assert.Equal(t, "id-4", st.History[1].ID)
		assert.Equal(t, "id-3", st.History[2].ID)
	})
}

func TestController_Generate_Failure(t *testing.T) {
	ctx := context.Background()

	t.Run("失敗は分類済みメッセージを残し履歴を消さないのだ", func(t *testing.T) {
		gen := &mockGenerator{
			generateFunc: func(ctx context.Context, req generator.Request) (*generator.Result, error) {
				return nil, errors.New("利用枠の上限に達しました。しばらく待ってから再試行してください。")
			},
		}
		store := &mockStore{initial: []domain.GeneratedImage{{ID: "old", Prompt: "p"}}}
		c := newTestController(t, gen, store, Options{})
		c.LoadHistory()
		c.SetPrompt("anything")

		err := c.Generate(ctx)

		assert.Error(t, err)
		st := c.State()
		assert.Contains(t, st.Error, "上限")
		assert.False(t, st.IsLoading)
		require.Len(t, st.History, 1, "history must survive failures")
		assert.Empty(t, store.saved, "failed generations must not trigger a save")
	})

	t.Run("finally保証: 成功でも失敗でもローディングは必ず解除されるのだ", func(t *testing.T) {
		for _, fail := range []bool{false, true} {
			gen := &mockGenerator{}
			if fail {
				gen.generateFunc = func(ctx context.Context, req generator.Request) (*generator.Result, error) {
					return nil, errors.New("boom")
				}
			}
			c := newTestController(t, gen, &mockStore{}, Options{})
			c.SetPrompt("x")

			_ = c.Generate(ctx)
			assert.False(t, c.State().IsLoading, "fail=%v", fail)
		}
	})
}

func TestController_Generate_SingleFlight(t *testing.T) {
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	gen := &mockGenerator{
		generateFunc: func(ctx context.Context, req generator.Request) (*generator.Result, error) {
			close(started)
			<-release
			return &generator.Result{Data: []byte("ok"), MimeType: "image/png"}, nil
		},
	}
	c := newTestController(t, gen, &mockStore{}, Options{})
	c.SetPrompt("slow")

	done := make(chan error, 1)
	go func() { done <- c.Generate(ctx) }()
	<-started

	// 進行中の2回目は状態を汚さずに拒否されるのだ
	err := c.Generate(ctx)
	assert.ErrorIs(t, err, ErrBusy)
	assert.True(t, c.State().IsLoading)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, gen.calls)
	assert.False(t, c.State().IsLoading)
}

func TestController_Mutators(t *testing.T) {
	t.Run("モード切替は選択済み画像を破棄するのだ", func(t *testing.T) {
		c := newTestController(t, &mockGenerator{}, &mockStore{}, Options{})
		c.SetImage1(&domain.ImageFile{Data: []byte("a")})
		c.SetImage2(&domain.ImageFile{Data: []byte("b")})

		c.SetMode(domain.ModeEdit)

		st := c.State()
		assert.Nil(t, st.Image1)
		assert.Nil(t, st.Image2)
		assert.Equal(t, domain.ModeEdit, st.Mode)
	})

	t.Run("不正なアスペクト比は無視されるのだ", func(t *testing.T) {
		c := newTestController(t, &mockGenerator{}, &mockStore{}, Options{})
		c.SetAspectRatio("4:3")
		assert.Equal(t, domain.AspectSquare, c.State().AspectRatio)

		c.SetAspectRatio(domain.AspectLandscape)
		assert.Equal(t, domain.AspectLandscape, c.State().AspectRatio)
	})
}

func TestController_HistoryOperations(t *testing.T) {
	newWithHistory := func(t *testing.T, store *mockStore) *Controller {
		c := newTestController(t, &mockGenerator{}, store, Options{})
		c.LoadHistory()
		return c
	}

	t.Run("履歴の選択は現在結果を差し替えエラーを消すのだ", func(t *testing.T) {
		store := &mockStore{initial: []domain.GeneratedImage{{ID: "a"}, {ID: "b"}}}
		c := newWithHistory(t, store)

		require.NoError(t, c.SelectHistoryItem("b"))
		st := c.State()
		require.NotNil(t, st.GeneratedImage)
		assert.Equal(t, "b", st.GeneratedImage.ID)

		assert.Error(t, c.SelectHistoryItem("missing"))
	})

	t.Run("履歴の削除は残りを永続化し直すのだ", func(t *testing.T) {
		store := &mockStore{initial: []domain.GeneratedImage{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
		c := newWithHistory(t, store)

		c.DeleteHistoryItem("b")

		st := c.State()
		require.Len(t, st.History, 2)
		assert.Equal(t, "a", st.History[0].ID)
		assert.Equal(t, "c", st.History[1].ID)
		require.Len(t, store.saved, 1)
		assert.Len(t, store.saved[0], 2)
	})
}

func TestController_DerivedOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("EditCurrent は結果を編集対象へ引き継ぐが送信はしないのだ", func(t *testing.T) {
		gen := &mockGenerator{}
		c := newTestController(t, gen, &mockStore{}, Options{})
		c.SetPrompt("base")
		require.NoError(t, c.Generate(ctx))
		callsAfterGenerate := gen.calls

		require.NoError(t, c.EditCurrent())

		st := c.State()
		assert.Equal(t, domain.ModeEdit, st.Mode)
		require.NotNil(t, st.Image1)
		assert.Equal(t, []byte("fake"), st.Image1.Data)
		assert.Equal(t, callsAfterGenerate, gen.calls)
	})

	t.Run("EditCurrent は結果がなければ失敗するのだ", func(t *testing.T) {
		c := newTestController(t, &mockGenerator{}, &mockStore{}, Options{})
		assert.Error(t, c.EditCurrent())
	})

	t.Run("ApplyStyle は結果を先頭画像に固定指示文で再送信するのだ", func(t *testing.T) {
		gen := &mockGenerator{}
		c := newTestController(t, gen, &mockStore{}, Options{})
		c.SetPrompt("a fox")
		require.NoError(t, c.Generate(ctx))

		require.NoError(t, c.ApplyStyle(ctx, "watercolor"))

		req := gen.lastReq
		assert.Equal(t, domain.ModeEdit, req.Mode)
		assert.Equal(t, prompt.FnStyle, req.EditFn)
		require.NotNil(t, req.Image1)
		assert.Equal(t, []byte("fake"), req.Image1.Data)
		assert.Contains(t, req.Prompt, "watercolor")
	})

	t.Run("ApplyStyle は結果がなければ送信しないのだ", func(t *testing.T) {
		gen := &mockGenerator{}
		c := newTestController(t, gen, &mockStore{}, Options{})
		assert.Error(t, c.ApplyStyle(ctx, "sketch"))
		assert.Equal(t, 0, gen.calls)
	})
}

func TestController_Share(t *testing.T) {
	ctx := context.Background()

	withResult := func(t *testing.T, sharer Sharer) *Controller {
		c := newTestController(t, &mockGenerator{}, &mockStore{}, Options{Sharer: sharer})
		c.SetPrompt("x")
		require.NoError(t, c.Generate(ctx))
		return c
	}

	t.Run("共有非対応の環境では黙って成功するのだ", func(t *testing.T) {
		c := withResult(t, nil)
		assert.NoError(t, c.Share(ctx))
	})

	t.Run("ユーザーの取り消しはエラーにしないのだ", func(t *testing.T) {
		sharer := &mockSharer{err: ErrShareCancelled}
		c := withResult(t, sharer)
		assert.NoError(t, c.Share(ctx))
		assert.Equal(t, 1, sharer.calls)
	})

	t.Run("本物の共有失敗はそのまま返すのだ", func(t *testing.T) {
		sharer := &mockSharer{err: errors.New("share backend down")}
		c := withResult(t, sharer)
		assert.Error(t, c.Share(ctx))
	})

	t.Run("結果がない共有は失敗するのだ", func(t *testing.T) {
		c := newTestController(t, &mockGenerator{}, &mockStore{}, Options{Sharer: &mockSharer{}})
		assert.Error(t, c.Share(ctx))
	})
}

func TestController_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("結果をタイムスタンプ名で書き出すのだ", func(t *testing.T) {
		c := newTestController(t, &mockGenerator{}, &mockStore{}, Options{DownloadPrefix: "studio"})
		c.SetPrompt("x")
		require.NoError(t, c.Generate(ctx))

		dir := t.TempDir()
		path, err := c.Download(dir)
		require.NoError(t, err)

		base := filepath.Base(path)
		assert.True(t, strings.HasPrefix(base, "studio-"), "name = %s", base)
		assert.True(t, strings.HasSuffix(base, ".png"), "name = %s", base)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("fake"), data)
	})

	t.Run("結果がなければ書き出さないのだ", func(t *testing.T) {
		c := newTestController(t, &mockGenerator{}, &mockStore{}, Options{})
		_, err := c.Download(t.TempDir())
		assert.Error(t, err)
	})
}
