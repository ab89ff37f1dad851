package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

type PromptType string

const (
	PromptBaseline  PromptType = "baseline"
	PromptOptimized PromptType = "optimized"
)

func (p PromptType) Valid() bool {
	return p == PromptBaseline || p == PromptOptimized
}

// DefaultAnalysisPrompt is used when no prompt directory is configured.
const DefaultAnalysisPrompt = `시스템 역할: 당신은 비판적 읽기 훈련 코치이자 언론 분석가입니다.
주어진 기사 본문에서 **문해력 향상에 도움이 되는 문장**을 선별하고,
각 문장을 선택한 **이유**를 설명하세요.

출력 형식(JSON):
{
  "core_sentences": [
    {"sentence": "기사 본문의 문장을 그대로 인용", "reason": "선택 이유"}
  ]
}

규칙:
- 기사에서 문해력, 논리적 사고, 비판적 읽기에 기여하는 문장 3~7개를 선택합니다.
- 문장은 본문에서 글자 그대로 인용합니다.
- 이유는 (1) 문체·명료성, (2) 논리 구조, (3) 비판적 사고 유도 중 하나 이상에 근거해야 합니다.
- JSON 외 다른 텍스트를 출력하지 마세요.
`

// PromptFileName is the file a provider's prompt is read from.
func PromptFileName(provider domain.ProviderID) string {
	return fmt.Sprintf("base_prompt_ko_%s.txt", provider)
}

// PromptStore loads system prompts from one directory per prompt type and
// caches them.
type PromptStore struct {
	dirs map[PromptType]string

	mu    sync.Mutex
	cache map[string]string
}

func NewPromptStore(dirs map[PromptType]string) *PromptStore {
	return &PromptStore{
		dirs:  dirs,
		cache: make(map[string]string),
	}
}

// Load returns the prompt for (promptType, provider). file overrides the
// default file name when non-empty. Without a directory for promptType the
// built-in prompt is returned.
func (s *PromptStore) Load(promptType PromptType, provider domain.ProviderID, file string) (string, error) {
	dir, ok := s.dirs[promptType]
	if !ok || dir == "" {
		return DefaultAnalysisPrompt, nil
	}
	if file == "" {
		file = PromptFileName(provider)
	}
	path := filepath.Join(dir, file)

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.cache[path]; ok {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load %s prompt for %s: %w", promptType, provider, err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}

	s.cache[path] = prompt
	return prompt, nil
}
