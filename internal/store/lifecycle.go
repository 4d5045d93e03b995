package store

import (
	"fmt"

	"github.com/jackzampolin/ebookstudio/internal/ebook"
)

// UploadedAIPrompt is recorded as the prompt of a user-uploaded asset.
const UploadedAIPrompt = "User uploaded asset"

// UploadedFile is a decoded upload. URL is set for images, Content for text.
type UploadedFile struct {
	Name    string
	URL     string
	Content string
}

func requireStatus(a *ebook.Asset, op string, allowed ...ebook.AssetStatus) error {
	for _, s := range allowed {
		if a.Status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s %s from %s", ErrInvalidTransition, op, a.ID, a.Status)
}

// StartGeneration moves an asset into generating and records the prompt.
// Prior AI output is kept until the generation completes.
func (s *Store) StartGeneration(ref Ref, prompt string) (ebook.Asset, error) {
	return s.Update(ref, func(a *ebook.Asset) error {
		if err := requireStatus(a, "generate", ebook.StatusIdle, ebook.StatusError, ebook.StatusGenerated); err != nil {
			return err
		}
		a.Status = ebook.StatusGenerating
		a.AIPrompt = prompt
		a.Error = ""
		return nil
	})
}

// CompleteGeneration stores the AI output and mirrors it into the final slot.
func (s *Store) CompleteGeneration(ref Ref, content, url string) (ebook.Asset, error) {
	return s.Update(ref, func(a *ebook.Asset) error {
		if err := requireStatus(a, "complete", ebook.StatusGenerating); err != nil {
			return err
		}
		a.Status = ebook.StatusGenerated
		a.AIGeneratedContent = content
		a.AIGeneratedURL = url
		a.FinalContent = content
		a.FinalURL = url
		a.Error = ""
		return nil
	})
}

// FailGeneration records msg and leaves the AI slot as it was.
func (s *Store) FailGeneration(ref Ref, msg string) (ebook.Asset, error) {
	return s.Update(ref, func(a *ebook.Asset) error {
		if err := requireStatus(a, "fail", ebook.StatusGenerating); err != nil {
			return err
		}
		a.Status = ebook.StatusError
		a.Error = msg
		return nil
	})
}

// MarkError puts an asset into error without a running generation. It is
// used when a request is rejected before the generation starts. Generating
// and accepted assets are left alone.
func (s *Store) MarkError(ref Ref, msg string) (ebook.Asset, error) {
	return s.Update(ref, func(a *ebook.Asset) error {
		if a.Status == ebook.StatusGenerating {
			return fmt.Errorf("%w: %s is generating", ErrInvalidTransition, a.ID)
		}
		if a.Status.Accepted() {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, a.ID, a.Status)
		}
		a.Status = ebook.StatusError
		a.Error = msg
		return nil
	})
}

// Approve accepts the asset. An uploaded slot wins over the AI slot.
func (s *Store) Approve(ref Ref) (ebook.Asset, error) {
	return s.Update(ref, func(a *ebook.Asset) error {
		if err := requireStatus(a, "approve", ebook.StatusGenerated, ebook.StatusUserUploaded); err != nil {
			return err
		}
		if a.UserUploadedURL != "" || a.UserUploadedContent != "" {
			a.FinalURL = a.UserUploadedURL
			a.FinalContent = a.UserUploadedContent
		} else {
			a.FinalURL = a.AIGeneratedURL
			a.FinalContent = a.AIGeneratedContent
		}
		a.Status = ebook.StatusApproved
		a.Error = ""
		return nil
	})
}

// Upload replaces the asset content with a user file and discards AI output.
func (s *Store) Upload(ref Ref, f UploadedFile) (ebook.Asset, error) {
	return s.Update(ref, func(a *ebook.Asset) error {
		if err := requireStatus(a, "upload", ebook.StatusIdle, ebook.StatusGenerating, ebook.StatusGenerated, ebook.StatusError); err != nil {
			return err
		}
		a.Status = ebook.StatusUserUploaded
		a.UserUploadedFile = f.Name
		a.UserUploadedURL = f.URL
		a.UserUploadedContent = f.Content
		a.FinalURL = f.URL
		a.FinalContent = f.Content
		a.AIGeneratedURL = ""
		a.AIGeneratedContent = ""
		a.AIPrompt = UploadedAIPrompt
		a.Error = ""
		return nil
	})
}

// Clear resets the asset to a fresh idle value with the same id and type.
func (s *Store) Clear(ref Ref) (ebook.Asset, error) {
	return s.Update(ref, func(a *ebook.Asset) error {
		*a = ebook.NewAsset(ref.ID, ref.Type)
		return nil
	})
}
