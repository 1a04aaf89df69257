package tui

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdxmph/phonebook/internal/contacts"
)

var today = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func person(first, last string) *contacts.Contact {
	return &contacts.Contact{
		DisplayName: first + " " + last,
		Name:        contacts.Name{GivenName: first, FamilyName: last},
	}
}

// newTestModel builds the screen over p and applies the initial fetch.
func newTestModel(t *testing.T, p contacts.Provider) Model {
	t.Helper()
	m := New(p, Options{Timeout: time.Second, Now: func() time.Time { return today }})
	return run(t, m, m.Init())
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// collect executes cmd, flattening batches, and returns the messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// run executes cmd and feeds provider results back into the model until no
// provider call is pending. Spinner ticks and cursor blinks are dropped.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, msg := range collect(c) {
			switch msg.(type) {
			case contactsLoadedMsg, contactSavedMsg, contactRemovedMsg:
				var next tea.Cmd
				m, next = update(m, msg)
				queue = append(queue, next)
			}
		}
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m Model, k string) (Model, tea.Cmd) {
	return update(m, keyMsg(k))
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// fill types values into consecutive form fields starting at the focused one.
func fill(m Model, values ...string) Model {
	for i, v := range values {
		m = typeText(m, v)
		if i < len(values)-1 {
			m, _ = press(m, "tab")
		}
	}
	return m
}

func mouse(m Model, action tea.MouseAction, x, y int) Model {
	m, _ = update(m, tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft})
	return m
}

func swipe(m Model, row, fromX, toX int) Model {
	y := listTop + row
	m = mouse(m, tea.MouseActionPress, fromX, y)
	m = mouse(m, tea.MouseActionMotion, toX, y)
	return mouse(m, tea.MouseActionRelease, toX, y)
}

func visibleNames(m Model) []string {
	var names []string
	for _, i := range visible(m.items) {
		names = append(names, m.items[i].contact.DisplayName)
	}
	return names
}

func stored(t *testing.T, p *contacts.MemoryProvider) []*contacts.Contact {
	t.Helper()
	all, err := p.Find(t.Context(), contacts.AllFields, contacts.FindOptions{Multiple: true})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	return all
}

func TestInit_LoadsFullList(t *testing.T) {
	p := contacts.NewMemoryProvider(person("Marcus", "Williams"), person("Ana", "Lee"))

	m := newTestModel(t, p)

	if got := visibleNames(m); strings.Join(got, ",") != "Ana Lee,Marcus Williams" {
		t.Errorf("visible = %v, want sorted full list", got)
	}
	if p.Calls(contacts.OpFind) != 1 {
		t.Errorf("find calls = %d, want 1", p.Calls(contacts.OpFind))
	}
	if m.loading {
		t.Error("loading should be cleared after the fetch")
	}
}

func TestCreate_BuildsProviderContact(t *testing.T) {
	// Given: an empty provider and the add form
	p := contacts.NewMemoryProvider()
	m := newTestModel(t, p)
	m, _ = press(m, "a")
	m = fill(m, "Ana", "Lee", "555-1234", "a@x.com", "1990-03-14")
	finds := p.Calls(contacts.OpFind)

	// When: the form is submitted
	m, cmd := press(m, "ctrl+s")
	m = run(t, m, cmd)
	refreshes := p.Calls(contacts.OpFind) - finds

	// Then: the provider receives the constructed contact
	all := stored(t, p)
	if len(all) != 1 {
		t.Fatalf("stored %d contacts, want 1", len(all))
	}
	c := all[0]
	if c.DisplayName != "Ana Lee" {
		t.Errorf("display name = %q, want %q", c.DisplayName, "Ana Lee")
	}
	if len(c.PhoneNumbers) != 1 || c.PhoneNumbers[0] != (contacts.Field{Type: "mobile", Value: "555-1234", Pref: true}) {
		t.Errorf("phones = %+v, want one preferred mobile 555-1234", c.PhoneNumbers)
	}
	if len(c.Emails) != 1 || c.Emails[0] != (contacts.Field{Type: "home", Value: "a@x.com"}) {
		t.Errorf("emails = %+v, want one home a@x.com", c.Emails)
	}
	if c.Birthday == nil || !c.Birthday.Equal(*date(1990, time.March, 14)) {
		t.Errorf("birthday = %v, want 1990-03-14", c.Birthday)
	}
	if len(c.Photos) != 0 {
		t.Errorf("photos = %+v, want none", c.Photos)
	}

	// And: the form closed and exactly one refresh followed
	if m.mode != modeList {
		t.Errorf("mode = %v, want list", m.mode)
	}
	if refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", refreshes)
	}
	if got := visibleNames(m); len(got) != 1 || got[0] != "Ana Lee" {
		t.Errorf("visible = %v, want [Ana Lee]", got)
	}
}

func TestCreate_DisplayNameJoinsWithOneSpace(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Ana", "Lee", "Ana Lee"},
		{"Ana", "", "Ana "},
		{"", "Lee", " Lee"},
		{"Mary Ann", "van Dyke", "Mary Ann van Dyke"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			f := newForm()
			f.reset()
			f.inputs[fieldFirst].SetValue(tt.first)
			f.inputs[fieldLast].SetValue(tt.last)

			c, err := f.build()
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if c.DisplayName != tt.want {
				t.Errorf("display name = %q, want %q", c.DisplayName, tt.want)
			}
			if c.Birthday != nil {
				t.Errorf("birthday = %v, want nil for an empty field", c.Birthday)
			}
		})
	}
}

func TestCreate_EnterOnLastFieldSubmits(t *testing.T) {
	p := contacts.NewMemoryProvider()
	m := newTestModel(t, p)
	m, _ = press(m, "a")
	m = fill(m, "Ana", "Lee", "", "", "", "")

	m, cmd := press(m, "enter")
	run(t, m, cmd)

	if p.Len() != 1 {
		t.Errorf("stored %d contacts, want 1", p.Len())
	}
}

func TestCreate_EncodesPhotoBeforeHandoff(t *testing.T) {
	// Given: a photo file on disk
	path := filepath.Join(t.TempDir(), "ana.png")
	if err := os.WriteFile(path, pngBytes, 0o644); err != nil {
		t.Fatal(err)
	}
	p := contacts.NewMemoryProvider()
	m := newTestModel(t, p)
	m, _ = press(m, "a")
	m = fill(m, "Ana", "Lee", "", "", "", path)

	// When: the form is submitted
	m, cmd := press(m, "ctrl+s")
	run(t, m, cmd)

	// Then: the provider gets base64 content, not the path
	all := stored(t, p)
	if len(all) != 1 || len(all[0].Photos) != 1 {
		t.Fatalf("stored = %+v, want one contact with one photo", all)
	}
	photo := all[0].Photos[0]
	if photo.Type != "base64" {
		t.Errorf("photo type = %q, want base64", photo.Type)
	}
	if photo.Value != base64.StdEncoding.EncodeToString(pngBytes) {
		t.Errorf("photo value = %q, want encoded file bytes", photo.Value)
	}
}

func TestCreate_LocalValidationRaisesAlert(t *testing.T) {
	tests := []struct {
		name     string
		birthday string
		photo    string
		want     string
	}{
		{"bad birthday", "1990-13-40", "", "Error saving contact: INVALID_ARGUMENT_ERROR"},
		{"missing photo", "", "/no/such/photo.png", "Error saving contact: IO_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := contacts.NewMemoryProvider()
			m := newTestModel(t, p)
			m, _ = press(m, "a")
			m.form.inputs[fieldFirst].SetValue("Ana")
			m.form.inputs[fieldBirthday].SetValue(tt.birthday)
			m.form.inputs[fieldPhoto].SetValue(tt.photo)

			m, cmd := press(m, "ctrl+s")

			if cmd != nil {
				t.Error("validation failure should not issue a provider call")
			}
			if m.alert != tt.want {
				t.Errorf("alert = %q, want %q", m.alert, tt.want)
			}
			if p.Calls(contacts.OpSave) != 0 {
				t.Errorf("save calls = %d, want 0", p.Calls(contacts.OpSave))
			}
			if m.mode != modeForm {
				t.Error("form should stay open")
			}
		})
	}
}

func TestCreate_ProviderErrorKeepsFormOpen(t *testing.T) {
	// Given: a provider whose next save fails
	p := contacts.NewMemoryProvider()
	m := newTestModel(t, p)
	p.FailNext(contacts.OpSave, contacts.IOError)
	m, _ = press(m, "a")
	m = fill(m, "Ana", "Lee")
	finds := p.Calls(contacts.OpFind)

	// When: the form is submitted
	m, cmd := press(m, "ctrl+s")
	m = run(t, m, cmd)

	// Then: the code is shown, the form stays open and nothing is refreshed
	if m.alert != "Error saving contact: IO_ERROR" {
		t.Errorf("alert = %q", m.alert)
	}
	if !strings.Contains(stripANSI(m.View()), "Error saving contact: IO_ERROR") {
		t.Error("alert not rendered")
	}
	if m.mode != modeForm || m.form.value(fieldFirst) != "Ana" {
		t.Errorf("mode = %v, first = %q; want the form open with its values", m.mode, m.form.value(fieldFirst))
	}
	if p.Calls(contacts.OpFind) != finds {
		t.Error("failed save should not refresh")
	}

	// And: any key dismisses the alert back to the form
	m, _ = press(m, "x")
	if m.alert != "" || m.mode != modeForm {
		t.Errorf("alert = %q, mode = %v after dismiss", m.alert, m.mode)
	}
	if m.form.value(fieldFirst) != "Ana" {
		t.Error("dismiss key should not reach the form")
	}
}

func TestCreate_IgnoresSubmitWhileSaving(t *testing.T) {
	p := contacts.NewMemoryProvider()
	m := newTestModel(t, p)
	m, _ = press(m, "a")
	m = fill(m, "Ana", "Lee")

	m, first := press(m, "ctrl+s")
	if !m.saving {
		t.Fatal("saving should be set while the save is in flight")
	}
	if !strings.Contains(stripANSI(m.View()), "Saving...") {
		t.Error("pending save should be shown")
	}
	m, second := press(m, "ctrl+s")
	if second != nil {
		t.Error("second submit should be ignored")
	}

	run(t, m, first)
	if p.Calls(contacts.OpSave) != 1 || p.Len() != 1 {
		t.Errorf("save calls = %d, stored = %d; want 1 and 1", p.Calls(contacts.OpSave), p.Len())
	}
}

func TestEdit_PrefillsFromFirstEntries(t *testing.T) {
	c := person("Marcus", "Williams")
	c.PhoneNumbers = []contacts.Field{{Type: "mobile", Value: "555-0101"}, {Type: "work", Value: "555-0199"}}
	c.Emails = []contacts.Field{{Type: "home", Value: "marcus@example.com"}, {Type: "work", Value: "m@design.studio"}}
	c.Birthday = date(1985, time.July, 4)
	m := newTestModel(t, contacts.NewMemoryProvider(c))

	m, _ = press(m, "e")

	if m.mode != modeForm || !m.form.editing() {
		t.Fatal("edit should open the form in edit mode")
	}
	want := []string{"Marcus", "Williams", "555-0101", "marcus@example.com", "1985-07-04", ""}
	for i, w := range want {
		if got := m.form.value(i); got != w {
			t.Errorf("field %d = %q, want %q", i, got, w)
		}
	}
}

func TestEdit_MutatesSameRecordInPlace(t *testing.T) {
	// Given: a contact with a second phone and a photo
	seed := person("Marcus", "Williams")
	seed.PhoneNumbers = []contacts.Field{{Type: "mobile", Value: "555-0101", Pref: true}, {Type: "work", Value: "555-0199"}}
	seed.Emails = []contacts.Field{{Type: "home", Value: "marcus@example.com"}}
	seed.Photos = []contacts.Field{contacts.EncodePhoto(pngBytes)}
	p := contacts.NewMemoryProvider(seed)
	m := newTestModel(t, p)
	target := m.items[0].contact

	// When: the name and phone are edited and submitted
	m, _ = press(m, "e")
	m.form.inputs[fieldFirst].SetValue("Marc")
	m.form.inputs[fieldPhone].SetValue("555-0102")
	m.form.inputs[fieldBirthday].SetValue("1985-07-04")
	finds := p.Calls(contacts.OpFind)
	m, cmd := press(m, "ctrl+s")

	// Then: the very same record is handed to the provider
	var saved *contactSavedMsg
	for _, msg := range collect(cmd) {
		if s, ok := msg.(contactSavedMsg); ok {
			saved = &s
		}
	}
	if saved == nil {
		t.Fatal("no save issued")
	}
	if saved.contact != target {
		t.Error("edit must save the same record, not a new one")
	}
	if target.Name.GivenName != "Marc" || target.DisplayName != "Marc Williams" {
		t.Errorf("target = %q / %+v, want mutated in place", target.DisplayName, target.Name)
	}

	m, next := update(m, *saved)
	m = run(t, m, next)

	// And: the provider keeps the second phone and the photo
	got, ok := p.Get(seed.ID)
	if !ok {
		t.Fatal("contact missing after edit")
	}
	if got.DisplayName != "Marc Williams" || got.FirstPhone() != "555-0102" {
		t.Errorf("stored = %q %q", got.DisplayName, got.FirstPhone())
	}
	if len(got.PhoneNumbers) != 2 || got.PhoneNumbers[1].Value != "555-0199" {
		t.Errorf("phones = %+v, want second entry kept", got.PhoneNumbers)
	}
	if len(got.Photos) != 1 || got.Photos[0] != seed.Photos[0] {
		t.Errorf("photos = %+v, want existing photo kept", got.Photos)
	}
	if contacts.FormatBirthday(got.Birthday) != "1985-07-04" {
		t.Errorf("birthday = %v", got.Birthday)
	}
	if p.Calls(contacts.OpFind)-finds != 1 || m.mode != modeList {
		t.Errorf("refreshes = %d, mode = %v; want 1 and list", p.Calls(contacts.OpFind)-finds, m.mode)
	}
}

func TestEdit_NewPhotoReplacesPhotos(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.png")
	if err := os.WriteFile(path, pngBytes, 0o644); err != nil {
		t.Fatal(err)
	}
	seed := person("Ana", "Lee")
	seed.Photos = []contacts.Field{contacts.EncodePhoto([]byte("old")), contacts.EncodePhoto([]byte("older"))}
	p := contacts.NewMemoryProvider(seed)
	m := newTestModel(t, p)

	m, _ = press(m, "e")
	m.form.inputs[fieldPhoto].SetValue(path)
	m, cmd := press(m, "ctrl+s")
	run(t, m, cmd)

	got, _ := p.Get(seed.ID)
	if len(got.Photos) != 1 || got.Photos[0] != contacts.EncodePhoto(pngBytes) {
		t.Errorf("photos = %+v, want the single new photo", got.Photos)
	}
}

func TestEdit_ValidationLeavesRecordUntouched(t *testing.T) {
	m := newTestModel(t, contacts.NewMemoryProvider(person("Ana", "Lee")))
	target := m.items[0].contact

	m, _ = press(m, "e")
	m.form.inputs[fieldFirst].SetValue("Changed")
	m.form.inputs[fieldBirthday].SetValue("not-a-date")
	m, _ = press(m, "ctrl+s")

	if m.alert != "Error saving contact: INVALID_ARGUMENT_ERROR" {
		t.Errorf("alert = %q", m.alert)
	}
	if target.Name.GivenName != "Ana" {
		t.Errorf("given name = %q, want unchanged", target.Name.GivenName)
	}
}

func TestOpenAdd_DiscardsEditBinding(t *testing.T) {
	m := newTestModel(t, contacts.NewMemoryProvider(person("Ana", "Lee")))

	m, _ = press(m, "e")
	m, _ = press(m, "esc")
	m, _ = press(m, "a")

	if m.form.editing() {
		t.Error("add form should be in create mode")
	}
	for i := 0; i < fieldCount; i++ {
		if v := m.form.value(i); v != "" {
			t.Errorf("field %d = %q, want empty", i, v)
		}
	}
	if !strings.Contains(stripANSI(m.View()), "New Contact") {
		t.Error("form title should say New Contact")
	}
}

func TestDelete_CancelDoesNothing(t *testing.T) {
	// Given: one contact and the delete confirmation open
	p := contacts.NewMemoryProvider(person("Ana", "Lee"))
	m := newTestModel(t, p)
	m, _ = press(m, "d")
	if m.mode != modeConfirm {
		t.Fatalf("mode = %v, want confirm", m.mode)
	}
	if !strings.Contains(stripANSI(m.View()), "Are you sure you want to delete this contact?") {
		t.Error("confirmation prompt not rendered")
	}
	finds := p.Calls(contacts.OpFind)

	// When: the user declines
	m, cmd := press(m, "n")

	// Then: remove is never called and the list is not refreshed
	if cmd != nil {
		t.Error("cancel should not issue commands")
	}
	if p.Calls(contacts.OpRemove) != 0 || p.Calls(contacts.OpFind) != finds {
		t.Errorf("remove = %d, find delta = %d; want 0 and 0",
			p.Calls(contacts.OpRemove), p.Calls(contacts.OpFind)-finds)
	}
	if m.mode != modeList || len(visibleNames(m)) != 1 {
		t.Error("list should be unchanged")
	}
}

func TestDelete_ConfirmRemovesAndRefreshes(t *testing.T) {
	p := contacts.NewMemoryProvider(person("Ana", "Lee"), person("Marcus", "Williams"))
	m := newTestModel(t, p)
	finds := p.Calls(contacts.OpFind)

	m, _ = press(m, "d")
	m, cmd := press(m, "y")
	m = run(t, m, cmd)

	if p.Calls(contacts.OpRemove) != 1 {
		t.Errorf("remove calls = %d, want 1", p.Calls(contacts.OpRemove))
	}
	if p.Calls(contacts.OpFind)-finds != 1 {
		t.Errorf("refreshes = %d, want 1", p.Calls(contacts.OpFind)-finds)
	}
	if got := visibleNames(m); len(got) != 1 || got[0] != "Marcus Williams" {
		t.Errorf("visible = %v, want [Marcus Williams]", got)
	}
}

func TestDelete_ProviderErrorShowsCode(t *testing.T) {
	p := contacts.NewMemoryProvider(person("Ana", "Lee"))
	m := newTestModel(t, p)
	p.FailNext(contacts.OpRemove, contacts.PermissionDeniedError)
	finds := p.Calls(contacts.OpFind)

	m, _ = press(m, "d")
	m, cmd := press(m, "y")
	m = run(t, m, cmd)

	if m.alert != "Error deleting contact: PERMISSION_DENIED_ERROR" {
		t.Errorf("alert = %q", m.alert)
	}
	if p.Calls(contacts.OpFind) != finds {
		t.Error("failed remove should not refresh")
	}
}

func TestRefresh_FetchErrorShowsCode(t *testing.T) {
	p := contacts.NewMemoryProvider(person("Ana", "Lee"))
	p.FailNext(contacts.OpFind, contacts.TimeoutError)

	m := newTestModel(t, p)

	if m.alert != "Error fetching contacts: TIMEOUT_ERROR" {
		t.Errorf("alert = %q", m.alert)
	}
}

func TestRefresh_DiscardsStaleResult(t *testing.T) {
	// Given: a refresh whose result is captured before the provider changes
	p := contacts.NewMemoryProvider(person("Ana", "Lee"))
	m := newTestModel(t, p)
	m, older := press(m, "r")
	stale := collect(older)

	if err := p.Save(t.Context(), contacts.Create(*person("Marcus", "Williams"))); err != nil {
		t.Fatal(err)
	}

	// When: a newer refresh completes first and the old result arrives later
	m, newer := press(m, "r")
	m = run(t, m, newer)
	for _, msg := range stale {
		if loaded, ok := msg.(contactsLoadedMsg); ok {
			m, _ = update(m, loaded)
		}
	}

	// Then: the newer list stays
	if got := visibleNames(m); len(got) != 2 {
		t.Errorf("visible = %v, want both contacts", got)
	}
}

func TestRefresh_RebuildsItems(t *testing.T) {
	p := contacts.NewMemoryProvider(person("Ana", "Lee"))
	m := newTestModel(t, p)
	m, _ = press(m, "left")
	before := m.items

	m, cmd := press(m, "r")
	m = run(t, m, cmd)

	if &before[0] == &m.items[0] {
		t.Error("refresh should replace the item slice")
	}
	if m.open != -1 {
		t.Error("refresh should close revealed rows")
	}
}

func TestGiftMarker_OnlyOnMatchingMonthAndDay(t *testing.T) {
	tests := []struct {
		name     string
		birthday *time.Time
		want     bool
	}{
		{"same day other year", date(1990, time.March, 14), true},
		{"same day this year", date(2026, time.March, 14), true},
		{"next day", date(1990, time.March, 15), false},
		{"same day other month", date(1990, time.April, 14), false},
		{"no birthday", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := person("Ana", "Lee")
			c.Birthday = tt.birthday
			m := newTestModel(t, contacts.NewMemoryProvider(c))

			got := strings.Contains(m.items[0].text, giftMarker)
			if got != tt.want {
				t.Errorf("marker = %v, want %v (text %q)", got, tt.want, m.items[0].text)
			}
			if rendered := strings.Contains(stripANSI(m.View()), giftMarker); rendered != tt.want {
				t.Errorf("rendered marker = %v, want %v", rendered, tt.want)
			}
		})
	}
}

func TestSearch_FiltersRenderedRows(t *testing.T) {
	// Given: four contacts
	p := contacts.NewMemoryProvider(person("john", "smith"), person("Ana", "Lee"), person("Joanna", "Park"), person("Marcus", "Williams"))
	m := newTestModel(t, p)
	before := visibleNames(m)
	finds := p.Calls(contacts.OpFind)

	// When: "Jo" is typed
	m, _ = press(m, "/")
	m = typeText(m, "Jo")

	// Then: matching is case-insensitive and order-preserving
	if got := strings.Join(visibleNames(m), ","); got != "Joanna Park,john smith" {
		t.Errorf("visible = %q, want Joanna Park,john smith", got)
	}

	// When: the query matches nothing
	m = typeText(m, "zzz")
	if got := visibleNames(m); len(got) != 0 {
		t.Errorf("visible = %v, want none", got)
	}

	// When: the query is cleared
	m, _ = press(m, "esc")
	if got := visibleNames(m); strings.Join(got, ",") != strings.Join(before, ",") {
		t.Errorf("visible = %v, want %v", got, before)
	}

	// And: the provider was never re-queried
	if p.Calls(contacts.OpFind) != finds {
		t.Error("search should not call the provider")
	}
}

func TestSearch_MatchesRenderedTextIncludingActions(t *testing.T) {
	c := person("Ana", "Lee")
	c.Birthday = date(1990, time.March, 14)
	m := newTestModel(t, contacts.NewMemoryProvider(c, person("Marcus", "Williams")))

	m, _ = press(m, "/")
	m = typeText(m, giftMarker)
	if got := visibleNames(m); len(got) != 1 || got[0] != "Ana Lee" {
		t.Errorf("marker query: visible = %v, want [Ana Lee]", got)
	}

	m, _ = press(m, "esc")
	m, _ = press(m, "/")
	m = typeText(m, "EDIT")
	if got := visibleNames(m); len(got) != 2 {
		t.Errorf("action label query: visible = %v, want both rows", got)
	}
}

func TestSearch_ReappliedAfterRefresh(t *testing.T) {
	p := contacts.NewMemoryProvider(person("Ana", "Lee"), person("Marcus", "Williams"))
	m := newTestModel(t, p)

	m, _ = press(m, "/")
	m = typeText(m, "ana")
	m, _ = press(m, "enter")
	m, cmd := press(m, "r")
	m = run(t, m, cmd)

	if got := visibleNames(m); len(got) != 1 || got[0] != "Ana Lee" {
		t.Errorf("visible = %v, want filter kept after refresh", got)
	}
}

func TestApplyFilter_Idempotent(t *testing.T) {
	items := buildItems([]*contacts.Contact{person("Ana", "Lee"), person("Jo", "March")}, today)

	applyFilter(items, "jo")
	first := visible(items)
	applyFilter(items, "jo")
	second := visible(items)

	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Errorf("first = %v, second = %v", first, second)
	}
	applyFilter(items, "")
	if len(visible(items)) != 2 {
		t.Error("empty query should show every item")
	}
}

func TestSwipe_Threshold(t *testing.T) {
	tests := []struct {
		name       string
		toX        int
		wantOffset int
		revealed   bool
	}{
		{"short left drag snaps back", 45, 50, false},
		{"exactly threshold snaps back", 40, 100, false},
		{"past threshold reveals", 39, 110, true},
		{"rightward drag has no offset", 60, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, contacts.NewMemoryProvider(person("Ana", "Lee")))
			y := listTop

			m = mouse(m, tea.MouseActionPress, 50, y)
			m = mouse(m, tea.MouseActionMotion, tt.toX, y)
			if m.items[0].offset != tt.wantOffset {
				t.Errorf("offset while dragging = %d, want %d", m.items[0].offset, tt.wantOffset)
			}

			m = mouse(m, tea.MouseActionRelease, tt.toX, y)
			if m.items[0].offset != 0 {
				t.Errorf("offset after release = %d, want 0", m.items[0].offset)
			}
			if (m.open == 0) != tt.revealed {
				t.Errorf("revealed = %v, want %v", m.open == 0, tt.revealed)
			}
			if m.mode != modeList {
				t.Errorf("mode = %v, a drag should not open an overlay", m.mode)
			}
		})
	}
}

func TestSwipe_SingleOpenRow(t *testing.T) {
	m := newTestModel(t, contacts.NewMemoryProvider(person("Ana", "Lee"), person("Marcus", "Williams")))

	m = swipe(m, 0, 60, 40)
	if m.open != 0 {
		t.Fatalf("open = %d, want 0", m.open)
	}
	m = swipe(m, 1, 60, 40)

	if m.open != 1 {
		t.Errorf("open = %d, want only row 1 revealed", m.open)
	}
	view := stripANSI(m.View())
	if strings.Count(view, actionsLabel) != 1 {
		t.Errorf("rendered %d action bars, want 1:\n%s", strings.Count(view, actionsLabel), view)
	}
}

func TestSwipe_KeyboardRevealAndClose(t *testing.T) {
	m := newTestModel(t, contacts.NewMemoryProvider(person("Ana", "Lee"), person("Marcus", "Williams")))

	m, _ = press(m, "left")
	if m.open != 0 {
		t.Fatalf("open = %d, want 0", m.open)
	}
	m, _ = press(m, "down")
	m, _ = press(m, "h")
	if m.open != 1 {
		t.Errorf("open = %d, want 1", m.open)
	}
	m, _ = press(m, "l")
	if m.open != -1 {
		t.Errorf("open = %d, want none", m.open)
	}
}

func TestTap_RevealedActionsAndDetail(t *testing.T) {
	m := newTestModel(t, contacts.NewMemoryProvider(person("Ana", "Lee")))
	m, _ = press(m, "left")
	target := m.items[0].contact
	deleteX := m.width - len(actionsLabel) + 1
	editX := m.width - 2

	tapped := swipe(m, 0, deleteX, deleteX)
	if tapped.mode != modeConfirm || tapped.confirm != target {
		t.Errorf("tap on Delete: mode = %v, want confirm for the row", tapped.mode)
	}

	tapped = swipe(m, 0, editX, editX)
	if tapped.mode != modeForm || tapped.form.target != target {
		t.Errorf("tap on Edit: mode = %v, want edit form for the row", tapped.mode)
	}

	tapped = swipe(m, 0, 5, 5)
	if tapped.mode != modeDetail || tapped.detail != target {
		t.Errorf("tap on row body: mode = %v, want detail", tapped.mode)
	}
}

func TestDetail_ShowsRecord(t *testing.T) {
	c := person("Ana", "Lee")
	c.PhoneNumbers = []contacts.Field{{Type: "mobile", Value: "555-1234"}, {Type: "work", Value: "555-9999"}}
	c.Emails = []contacts.Field{{Type: "home", Value: "a@x.com"}}
	c.Birthday = date(1990, time.March, 14)
	c.Photos = []contacts.Field{contacts.EncodePhoto(pngBytes)}
	m := newTestModel(t, contacts.NewMemoryProvider(c))

	m, _ = press(m, "enter")
	view := stripANSI(m.View())

	for _, want := range []string{"Ana Lee", "Phone:    555-1234", "Email:    a@x.com", "Birthday: Wed Mar 14 1990", "Photo:    image/png, 16 B"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "555-9999") {
		t.Error("detail should show the first phone only")
	}

	m, _ = press(m, "esc")
	if m.mode != modeList || m.detail != nil {
		t.Error("esc should close the detail view")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, contacts.NewMemoryProvider())

	_, cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
