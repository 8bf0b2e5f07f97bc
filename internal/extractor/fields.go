package extractor

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// 电话号码：可选国家码前缀，数字与常见分隔符
	phonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[\s\-.]?)?(?:\(\d{2,4}\)[\s\-.]?)?\d{3,4}[\s\-.]?\d{3,4}(?:[\s\-.]?\d{2,4})?`)
)

// NormalizeText 将任意来源的文本整理为统一的纯文本形式。
// 保留换行（后续教育/经历分段依赖行结构），压缩行内连续空白，
// 去除行尾空白并把三个以上的连续空行压成一个。
func NormalizeText(raw string) string {
	raw = strings.ToValidUTF8(raw, "")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// ExtractEmail 返回文本中第一个符合邮箱语法的匹配，无匹配时返回空字符串
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// ExtractPhone 返回文本中第一个形似电话号码的匹配，无匹配时返回空字符串。
// 少于9位数字的匹配视为噪音（年份区间、邮编等）丢弃，
// 这会漏掉8位的固话，但对简历场景手机号优先。
func ExtractPhone(text string) string {
	for _, candidate := range phonePattern.FindAllString(text, -1) {
		digits := 0
		for _, r := range candidate {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		if digits >= 9 {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

// ExtractName 取第一条看起来像姓名的非空行：不是章节标题、
// 不含邮箱或电话、长度不超过maxLength个rune。
// 找不到时返回空字符串，由调用方决定回退策略。
func ExtractName(text string, headers []string, maxLength int) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxLength {
			continue
		}
		if isSectionHeader(line, headers) {
			continue
		}
		if emailPattern.MatchString(line) || ExtractPhone(line) != "" {
			continue
		}
		return line
	}
	return ""
}

// NameFromFilename 基于文件名生成姓名占位符：去掉扩展名，分隔符还原为空格
func NameFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Unknown Candidate"
	}
	return base
}

// ScanSkills 对技能词表做成员扫描：词表中出现在文本里的每一项都命中。
// 纯函数，与文档格式无关；结果为小写、去重，按词项在文本中首次出现的位置排序。
// 刻意偏向召回而非精度，误报由检索阶段的语义评分修正。
func ScanSkills(text string, vocabulary []string) []string {
	lower := strings.ToLower(text)

	type hit struct {
		term string
		pos  int
	}
	hits := make([]hit, 0, 8)
	seen := make(map[string]bool, len(vocabulary))

	for _, term := range vocabulary {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" || seen[t] {
			continue
		}
		if pos := indexTerm(lower, t); pos >= 0 {
			seen[t] = true
			hits = append(hits, hit{term: t, pos: pos})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	skills := make([]string, len(hits))
	for i, h := range hits {
		skills[i] = h.term
	}
	return skills
}

// indexTerm 在小写文本中查找词项的首次边界命中位置。
// 边界指词项两侧不能紧邻字母或数字，这样"go"不会命中"google"，
// 而"c++"之类含符号的词项仍按原样匹配。
func indexTerm(lowerText, term string) int {
	from := 0
	for {
		idx := strings.Index(lowerText[from:], term)
		if idx < 0 {
			return -1
		}
		idx += from
		if boundaryAt(lowerText, idx-1) && boundaryAt(lowerText, idx+len(term)) {
			return idx
		}
		from = idx + 1
	}
}

func boundaryAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// ExtractSection 按标题关键词切出章节文本。
// 扫描各行找到命中sectionHeaders的标题行，收集其后的行，
// 直到遇到命中allHeaders中任意关键词的下一个标题行或文档结束。
// 未找到章节时返回空字符串。
func ExtractSection(text string, sectionHeaders, allHeaders []string) string {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if isSectionHeader(line, sectionHeaders) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}

	body := make([]string, 0, 8)
	for _, line := range lines[start:] {
		if isSectionHeader(line, allHeaders) {
			break
		}
		body = append(body, line)
	}

	return strings.TrimSpace(strings.Join(body, "\n"))
}

// isSectionHeader 判断一行是否为章节标题：整行较短且包含任一关键词。
// 长度上限挡住正文中顺带提到关键词的句子。
const maxHeaderLineRunes = 40

func isSectionHeader(line string, headers []string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(line))
	trimmed = strings.TrimRight(trimmed, ":：")
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxHeaderLineRunes {
		return false
	}
	for _, h := range headers {
		if strings.Contains(trimmed, strings.ToLower(h)) {
			return true
		}
	}
	return false
}
