// Package ej — HTTP-клиент электронного журнала ej.kbp.by и сайта
// расписания kbp.by. Журнал отдаёт страницы только в рамках сессии,
// полученной через форму родительского входа.
package ej

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/meowhiks/kbp-app/internal/bells"
	"github.com/meowhiks/kbp-app/internal/models"
	"github.com/meowhiks/kbp-app/internal/parser"
)

const (
	defaultJournalBase   = "https://ej.kbp.by"
	defaultTimetableBase = "https://kbp.by/rasp/timetable/view_beta_kbp"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"
)

// ErrSessionExpired — страница журнала получена, но журнала в ней нет:
// сессия истекла, нужен повторный вход.
var ErrSessionExpired = errors.New("сессия журнала истекла")

// Group — группа из справочника журнала.
type Group struct {
	ID   string
	Name string
}

// Client держит HTTP-клиент и таблицу звонков для парсера расписания.
// Базовые адреса вынесены в поля ради тестов.
type Client struct {
	JournalBase   string
	TimetableBase string

	httpClient *http.Client
	bells      bells.Table
}

// NewClient создаёт клиент с боевыми адресами.
func NewClient(b bells.Table) *Client {
	return &Client{
		JournalBase:   defaultJournalBase,
		TimetableBase: defaultTimetableBase,
		httpClient:    &http.Client{Timeout: 20 * time.Second},
		bells:         b,
	}
}

func (c *Client) get(ctx context.Context, rawURL, cookies string) (string, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "ru,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", c.JournalBase+"/")
	if cookies != "" {
		req.Header.Set("Cookie", cookies)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("запрос %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("запрос %s: код ответа %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("чтение ответа %s: %w", rawURL, err)
	}
	return string(body), resp.Header, nil
}

// loginPage загружает форму родительского входа. Метка времени в запросе
// обходит кеширование, иначе S_Code приходит протухшим.
func (c *Client) loginPage(ctx context.Context) (html string, cookies string, err error) {
	u := fmt.Sprintf("%s/templates/login_parent.php?_=%d", c.JournalBase, time.Now().UnixMilli())
	html, header, err := c.get(ctx, u, "")
	if err != nil {
		return "", "", err
	}
	return html, joinSetCookies(header.Values("Set-Cookie")), nil
}

var sCodeRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<input[^>]*id\s*=\s*["']S_Code["'][^>]*value\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)<input[^>]*value\s*=\s*["']([^"']+)["'][^>]*id\s*=\s*["']S_Code["']`),
	regexp.MustCompile(`(?i)S_Code["'][^>]*value\s*=\s*["']([a-f0-9]{32})["']`),
}

// extractSCode достаёт 32-символьный S_Code из скрытого поля формы.
func extractSCode(html string) (string, bool) {
	for _, re := range sCodeRes {
		if m := re.FindStringSubmatch(html); m != nil && len(m[1]) == 32 {
			return m[1], true
		}
	}
	return "", false
}

// Login проходит форму родительского входа и возвращает cookies сессии.
func (c *Client) Login(ctx context.Context, studentName, groupID, birthDay string) (string, error) {
	html, cookies, err := c.loginPage(ctx)
	if err != nil {
		return "", fmt.Errorf("страница входа: %w", err)
	}
	sCode, ok := extractSCode(html)
	if !ok {
		return "", errors.New("S_Code не найден на странице входа")
	}

	// Порядок полей как в оригинальной форме: S_Code первым.
	form := url.Values{}
	form.Set("action", "login_parent")
	form.Set("S_Code", sCode)
	form.Set("student_name", studentName)
	form.Set("group_id", groupID)
	form.Set("birth_day", birthDay)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.JournalBase+"/ajax.php", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.JournalBase+"/")
	req.Header.Set("Origin", c.JournalBase)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if cookies != "" {
		req.Header.Set("Cookie", cookies)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("вход в журнал: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("вход в журнал: %w", err)
	}

	if sessionCookies := joinSetCookies(resp.Header.Values("Set-Cookie")); sessionCookies != "" {
		cookies = sessionCookies
	}

	// ajax.php отвечает словом good при успешном входе.
	if !strings.Contains(strings.ToLower(string(body)), "good") {
		return "", fmt.Errorf("вход отклонён журналом: %s", strings.TrimSpace(string(body)))
	}
	return cookies, nil
}

// JournalHTML загружает страницу журнала в рамках сессии. Страница без
// маркеров журнала означает истёкшую сессию.
func (c *Client) JournalHTML(ctx context.Context, cookies string) (string, error) {
	html, _, err := c.get(ctx, c.JournalBase+"/templates/parent_journal.php", cookies)
	if err != nil {
		return "", err
	}
	if !parser.JournalAvailable(html) {
		return "", ErrSessionExpired
	}
	return html, nil
}

// Journal загружает и разбирает журнал.
func (c *Client) Journal(ctx context.Context, cookies string) (*models.JournalSnapshot, error) {
	html, err := c.JournalHTML(ctx, cookies)
	if err != nil {
		return nil, err
	}
	return parser.ParseJournal(html), nil
}

// Groups возвращает справочник групп из выпадающего списка формы входа.
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	html, _, err := c.loginPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("справочник групп: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("справочник групп: %w", err)
	}

	var groups []Group
	doc.Find("option").Each(func(_ int, sel *goquery.Selection) {
		id, ok := sel.Attr("value")
		name := strings.TrimSpace(sel.Text())
		if ok && isDigits(id) && name != "" {
			groups = append(groups, Group{ID: id, Name: name})
		}
	})
	return groups, nil
}

var groupLinkIDRe = regexp.MustCompile(`[?&]id=(\d+)`)

// timetableGroupMap строит соответствие "название группы -> id в
// расписании" по ссылкам главной страницы расписания. У журнала и
// расписания разные id одной и той же группы, связывает их название.
func (c *Client) timetableGroupMap(ctx context.Context) (map[string]string, error) {
	html, _, err := c.get(ctx, c.TimetableBase+"/", "")
	if err != nil {
		return nil, fmt.Errorf("главная страница расписания: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("главная страница расписания: %w", err)
	}

	groupMap := make(map[string]string)
	doc.Find(`a[href*="cat=group"]`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		name := strings.TrimSpace(sel.Text())
		if m := groupLinkIDRe.FindStringSubmatch(href); m != nil && name != "" {
			groupMap[name] = m[1]
		}
	})
	return groupMap, nil
}

// Timetable загружает и разбирает расписание группы журнала groupID:
// находит название группы в справочнике, по названию — id в расписании,
// затем саму сетку.
func (c *Client) Timetable(ctx context.Context, groupID string) (*models.TimetableSnapshot, error) {
	groups, err := c.Groups(ctx)
	if err != nil {
		return nil, err
	}
	groupName := ""
	for _, g := range groups {
		if g.ID == groupID {
			groupName = g.Name
			break
		}
	}
	if groupName == "" {
		return nil, fmt.Errorf("группа с id %s не найдена в справочнике журнала", groupID)
	}

	groupMap, err := c.timetableGroupMap(ctx)
	if err != nil {
		return nil, err
	}
	timetableID, ok := groupMap[groupName]
	if !ok {
		return nil, fmt.Errorf("группа %s не найдена в расписании", groupName)
	}

	pageURL := fmt.Sprintf("%s/?page=stable&cat=group&id=%s", c.TimetableBase, timetableID)
	html, _, err := c.get(ctx, pageURL, "")
	if err != nil {
		return nil, fmt.Errorf("страница расписания группы %s: %w", groupName, err)
	}

	return parser.ParseTimetable(html, timetableID, groupName, c.bells), nil
}

// joinSetCookies собирает из заголовков Set-Cookie строку "имя=значение; ...".
func joinSetCookies(headers []string) string {
	var pairs []string
	for _, h := range headers {
		if i := strings.IndexByte(h, ';'); i != -1 {
			h = h[:i]
		}
		h = strings.TrimSpace(h)
		if strings.ContainsRune(h, '=') {
			pairs = append(pairs, h)
		}
	}
	return strings.Join(pairs, "; ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
