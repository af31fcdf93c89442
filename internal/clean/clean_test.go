package clean

import (
	"errors"
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	cases := []struct {
		name string
		in   string
		opts Options
		want string
	}{
		{
			name: "images only leaves empty paragraph",
			in:   "<p><img src='x.png'></p>",
			opts: Options{ClearImages: true},
			want: "<p></p>",
		},
		{
			name: "images and empty tags",
			in:   "<p><img src='x.png'></p>",
			opts: Options{ClearImages: true, ClearEmptyTags: true},
			want: "",
		},
		{
			name: "empty tags keep void elements",
			in:   "<p><img src='x.png'></p><div> </div>",
			opts: Options{ClearEmptyTags: true},
			want: `<p><img src="x.png"></p>`,
		},
		{
			name: "empty tags keep line breaks",
			in:   "<p>a<br>b</p><p><br></p><span></span>",
			opts: Options{ClearEmptyTags: true},
			want: "<p>a<br>b</p><p><br></p>",
		},
		{
			name: "spans and styles",
			in:   "<span style='color:red'>hi</span>",
			opts: Options{ClearSpanTags: true, ClearInlineStyles: true},
			want: "hi",
		},
		{
			name: "comments",
			in:   "<!-- a --><p>x<!-- b --></p>",
			opts: Options{ClearComments: true},
			want: "<p>x</p>",
		},
		{
			name: "links are unwrapped",
			in:   `<p>go <a href="/x"><b>here</b></a></p>`,
			opts: Options{ClearLinks: true},
			want: "<p>go <b>here</b></p>",
		},
		{
			name: "tables removed",
			in:   "<table><tr><td>a</td></tr></table><p>b</p>",
			opts: Options{ClearTables: true, ConvertTablesToDivs: true},
			want: "<p>b</p>",
		},
		{
			name: "tables converted",
			in:   "<table><tr><td>a</td><th>b</th></tr></table>",
			opts: Options{ConvertTablesToDivs: true},
			want: `<div class="table"><div class="table-row"><div class="table-cell">a</div><div class="table-cell">b</div></div></div>`,
		},
		{
			name: "nested tables converted",
			in:   "<table><tr><td><table><tr><td>in</td></tr></table></td></tr></table>",
			opts: Options{ConvertTablesToDivs: true},
			want: `<div class="table"><div class="table-row"><div class="table-cell"><div class="table"><div class="table-row"><div class="table-cell">in</div></div></div></div></div></div>`,
		},
		{
			name: "classes and ids",
			in:   `<p class="a" id="b" title="c">x</p>`,
			opts: Options{ClearClassesAndIDs: true},
			want: `<p title="c">x</p>`,
		},
		{
			name: "all attributes",
			in:   `<p class="a" title="c"><a href="/x">x</a></p>`,
			opts: Options{ClearTagAttributes: true},
			want: `<p><a>x</a></p>`,
		},
		{
			name: "lone nbsp",
			in:   "<p>&nbsp;</p><p> &nbsp; </p><p>&nbsp;&nbsp;</p><p>x</p>",
			opts: Options{ClearTagsWithOneNbsp: true},
			want: "<p>&nbsp;&nbsp;</p><p>x</p>",
		},
		{
			name: "empty tags include nbsp-only",
			in:   "<div><p>&nbsp;&nbsp;</p></div><p>x</p>",
			opts: Options{ClearEmptyTags: true},
			want: "<p>x</p>",
		},
		{
			name: "successive nbsp",
			in:   "<p>a&nbsp;&nbsp;&nbsp;b</p>",
			opts: Options{ClearSuccessiveNbsp: true},
			want: "<p>a&nbsp;b</p>",
		},
		{
			name: "successive nbsp across nodes",
			in:   "<p>a&nbsp;<b>&nbsp;</b>&nbsp;b</p>",
			opts: Options{ClearSuccessiveNbsp: true},
			want: "<p>a&nbsp;<b>&nbsp;</b>&nbsp;b</p>",
		},
		{
			name: "character encoding",
			in:   "<p>café ✓</p>",
			opts: Options{CharacterEncoding: true},
			want: "<p>caf&#233; &#10003;</p>",
		},
		{
			name: "organize tree view",
			in:   "<div><p>x   y</p><br></div>",
			opts: Options{OrganizeTreeView: true},
			want: "<div>\n  <p>\n    x y\n  </p>\n  <br>\n</div>",
		},
		{
			name: "all tags",
			in:   "<p>Hello&nbsp;<b>World</b></p>\n",
			opts: Options{ClearAllTags: true, OrganizeTreeView: true},
			want: "Hello World",
		},
		{
			name: "all tags with encoding",
			in:   "<p> naïve&nbsp;&nbsp;text </p>",
			opts: Options{ClearAllTags: true, ClearSuccessiveNbsp: true, CharacterEncoding: true},
			want: "na&#239;ve text",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in, tc.opts); got != tc.want {
				t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanDefaultsProducePlainText(t *testing.T) {
	in := `<h2>Title</h2><!-- c --><table><tr><td style="padding: 8px">Name</td></tr></table><p><span class="x">a&nbsp;&nbsp;b</span></p>`
	got := Clean(in, DefaultOptions())
	if strings.ContainsAny(got, "<>") {
		t.Fatalf("expected plain text, got %q", got)
	}
	for _, want := range []string{"Title", "a b"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output %q is missing %q", got, want)
		}
	}
	if strings.Contains(got, "Name") {
		t.Fatalf("tables should be cleared by default, got %q", got)
	}
}

func TestCleanIsPure(t *testing.T) {
	in := "<p><span>x</span></p>"
	opts := Options{ClearSpanTags: true}
	if Clean(in, opts) != Clean(in, opts) {
		t.Fatal("repeated runs differ")
	}
}

func TestParseOptions(t *testing.T) {
	o, err := ParseOptions(map[string]bool{"clearImages": true, "clearEmptyTags": true})
	if err != nil {
		t.Fatal(err)
	}
	if !o.ClearImages || !o.ClearEmptyTags || o.ClearAllTags {
		t.Fatalf("options = %+v", o)
	}
	if o, _ := ParseOptions(nil); o != DefaultOptions() {
		t.Fatal("empty map should give the defaults")
	}
	if _, err := ParseOptions(map[string]bool{"clearEverything": true}); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}
}

func TestOptionList(t *testing.T) {
	list := OptionList()
	if len(list) != 15 {
		t.Fatalf("got %d options", len(list))
	}
	if list[0].Key != "clearInlineStyles" || list[len(list)-1].Key != "organizeTreeView" {
		t.Fatalf("unexpected order: %v", list)
	}
	m := DefaultOptions().Map()
	for _, o := range list {
		if !m[o.Key] {
			t.Fatalf("default for %s should be on", o.Key)
		}
	}
}
