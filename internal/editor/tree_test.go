package editor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecms/internal/domain"
)

func nested() []Element {
	return []Element{
		{ID: "box", Type: TypeContainer, Children: []Element{
			{ID: "inner", Type: TypeParagraph, Props: Props{Content: "hi"}},
		}},
		{ID: "title", Type: TypeHeading, Props: Props{Content: "Title"}},
	}
}

func TestUpdate_Recursive(t *testing.T) {
	content := "bye"
	out, err := Update(nested(), "inner", Patch{Content: &content, Style: map[string]string{"color": "red"}})
	require.NoError(t, err)
	assert.Equal(t, "bye", Find(out, "inner").Props.Content)
	assert.Equal(t, "red", Find(out, "inner").Props.Style["color"])

	out, err = Update(out, "inner", Patch{Style: map[string]string{"color": ""}})
	require.NoError(t, err)
	assert.Nil(t, Find(out, "inner").Props.Style)

	_, err = Update(nested(), "missing", Patch{})
	assert.Error(t, err)
}

func TestDelete_Recursive(t *testing.T) {
	src := nested()
	out, err := Delete(src, "inner")
	require.NoError(t, err)
	assert.Nil(t, Find(out, "inner"))
	assert.NotNil(t, Find(src, "inner"), "input is left untouched")

	out, err = Delete(out, "box")
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, ids(out))

	_, err = Delete(out, "box")
	assert.Error(t, err)
}

func TestMove(t *testing.T) {
	src := elems("a", "b", "c", "d")

	out, err := Move(src, "a", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(out))

	out, err = Move(src, "d", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids(out))

	out, err = Move(src, "b", 99)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d", "b"}, ids(out))

	_, err = Move(src, "zz", 0)
	assert.Error(t, err)
	_, err = Move(src, "a", -1)
	assert.Error(t, err)
}

func TestNewElement(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	existing := []Element{{ID: "1700000000000"}}

	e, err := NewElement(TypeHeading, now, existing)
	require.NoError(t, err)
	assert.NotEqual(t, "1700000000000", e.ID)
	assert.Len(t, e.ID, 36)
	assert.Equal(t, "Nuevo título", e.Props.Content)

	e, err = NewElement(TypeParagraph, now, nil)
	require.NoError(t, err)
	assert.Equal(t, "1700000000000", e.ID)

	_, err = NewElement("marquee", now, nil)
	assert.Error(t, err)
}

func TestContentRoundTrip(t *testing.T) {
	src := nested()
	src[1].Props.Style = map[string]string{"color": "red"}
	rows, err := ToContent("page-1", src)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[1].OrderIndex)
	assert.Equal(t, "page-1", rows[0].PageID)

	back := FromContent(rows)
	assert.Equal(t, src, back)
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(nil))
	assert.True(t, IsBlank([]Element{{ID: "p", Type: TypePagePreview}}))
	assert.False(t, IsBlank(elems("a")))
	assert.False(t, IsBlank(FromContent([]domain.EditableContent{{ElementID: "x", ContentType: TypeHeading}})))
}

func TestRender(t *testing.T) {
	out, err := Render([]Element{
		{ID: "h", Type: TypeHeading, Props: Props{Content: "<b>Hi</b>", ClassName: "big"}},
		{ID: "btn", Type: TypeButton, Props: Props{Content: "Go", Attrs: map[string]string{"href": "/consultoria"}}},
		{ID: "box", Type: TypeContainer, Props: Props{Style: map[string]string{"min-height": "100px"}}, Children: []Element{
			{ID: "p", Type: TypeParagraph, Props: Props{Content: "inside"}},
		}},
	})
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, `<h1 id="h" data-element-type="heading" class="big">&lt;b&gt;Hi&lt;/b&gt;</h1>`)
	assert.Contains(t, html, `href="/consultoria"`)
	assert.Contains(t, html, `style="min-height: 100px"`)
	assert.True(t, strings.Index(html, `id="box"`) < strings.Index(html, `id="p"`))
}
