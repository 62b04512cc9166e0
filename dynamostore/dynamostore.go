// Package dynamostore persists game records in DynamoDB. Partial updates map
// onto a single UpdateItem call: assigned fields become SET clauses and
// explicitly cleared fields become REMOVE clauses, so the store-level merge
// matches the GameUpdate contract exactly. DynamoDB has no push channel, so
// Watch polls the record at a fixed interval.
package dynamostore

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	codewords "github.com/bcspragu/Codewords"
)

const defaultPollInterval = 2 * time.Second

type Store struct {
	d         *dynamodb.DynamoDB
	tableName string
	pollEvery time.Duration
}

type Option func(*Store)

// WithPollInterval overrides how often Watch re-reads the record.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) { s.pollEvery = d }
}

func New(d *dynamodb.DynamoDB, tableName string, opts ...Option) *Store {
	s := &Store{
		d:         d,
		tableName: tableName,
		pollEvery: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// gameItem is the stored shape of a record. Optional fields carry omitempty
// so an absent winner/clue/spymaster is a missing attribute, not a NULL.
type gameItem struct {
	PK string
	SK string

	ID            string          `dynamodbav:"id"`
	Cards         []codewords.Card `dynamodbav:"cards"`
	CurrentTeam   string          `dynamodbav:"currentTeam"`
	RedRemaining  int             `dynamodbav:"redRemaining"`
	BlueRemaining int             `dynamodbav:"blueRemaining"`
	Winner        string          `dynamodbav:"winner,omitempty"`
	CurrentClue   *codewords.Clue `dynamodbav:"currentClue,omitempty"`
	CreatedAt     int64           `dynamodbav:"createdAt"`
	SpymasterID   string          `dynamodbav:"spymasterId,omitempty"`
}

func gameKey(id codewords.GameID) map[string]*dynamodb.AttributeValue {
	k := fmt.Sprintf("GAME#%s", id)
	return map[string]*dynamodb.AttributeValue{
		"PK": {S: aws.String(k)},
		"SK": {S: aws.String(k)},
	}
}

func toItem(g *codewords.Game) *gameItem {
	it := &gameItem{
		PK:            fmt.Sprintf("GAME#%s", g.ID),
		SK:            fmt.Sprintf("GAME#%s", g.ID),
		ID:            string(g.ID),
		Cards:         g.Cards,
		CurrentTeam:   string(g.CurrentTeam),
		RedRemaining:  g.RedRemaining,
		BlueRemaining: g.BlueRemaining,
		CurrentClue:   g.CurrentClue,
		CreatedAt:     g.CreatedAt,
		SpymasterID:   g.SpymasterID,
	}
	if g.Winner != nil {
		it.Winner = string(*g.Winner)
	}
	return it
}

func fromItem(it *gameItem) *codewords.Game {
	g := &codewords.Game{
		ID:            codewords.GameID(it.ID),
		Cards:         it.Cards,
		CurrentTeam:   codewords.Team(it.CurrentTeam),
		RedRemaining:  it.RedRemaining,
		BlueRemaining: it.BlueRemaining,
		CurrentClue:   it.CurrentClue,
		CreatedAt:     it.CreatedAt,
		SpymasterID:   it.SpymasterID,
	}
	if it.Winner != "" {
		w := codewords.Team(it.Winner)
		g.Winner = &w
	}
	return g
}

func (s *Store) CreateGame(ctx context.Context, g *codewords.Game) error {
	av, err := dynamodbattribute.MarshalMap(toItem(g))
	if err != nil {
		return fmt.Errorf("failed to marshal game item: %w", err)
	}

	_, err = s.d.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", codewords.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) Game(ctx context.Context, id codewords.GameID) (*codewords.Game, error) {
	result, err := s.d.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            gameKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", codewords.ErrStorageUnavailable, err)
	}
	if len(result.Item) == 0 {
		return nil, codewords.ErrGameNotFound
	}

	var it gameItem
	if err := dynamodbattribute.UnmarshalMap(result.Item, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game item: %w", err)
	}
	return fromItem(&it), nil
}

func (s *Store) UpdateGame(ctx context.Context, id codewords.GameID, u codewords.GameUpdate) error {
	expr, names, values, err := updateExpr(u)
	if err != nil {
		return err
	}
	if expr == "" {
		return nil
	}

	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 gameKey(id),
		UpdateExpression:    aws.String(expr),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}
	if len(values) > 0 {
		input.ExpressionAttributeValues = values
	}

	if _, err := s.d.UpdateItemWithContext(ctx, input); err != nil {
		if _, ok := err.(*dynamodb.ConditionalCheckFailedException); ok {
			return codewords.ErrGameNotFound
		}
		return fmt.Errorf("%w: %v", codewords.ErrStorageUnavailable, err)
	}
	return nil
}

// updateExpr translates a GameUpdate into a DynamoDB update expression.
func updateExpr(u codewords.GameUpdate) (string, map[string]*string, map[string]*dynamodb.AttributeValue, error) {
	var sets, removes []string
	names := make(map[string]*string)
	values := make(map[string]*dynamodb.AttributeValue)

	set := func(field string, v interface{}) error {
		av, err := dynamodbattribute.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal field %q: %w", field, err)
		}
		names["#"+field] = aws.String(field)
		values[":"+field] = av
		sets = append(sets, fmt.Sprintf("#%s = :%s", field, field))
		return nil
	}
	remove := func(field string) {
		names["#"+field] = aws.String(field)
		removes = append(removes, "#"+field)
	}

	if u.Cards != nil {
		if err := set("cards", u.Cards); err != nil {
			return "", nil, nil, err
		}
	}
	if u.CurrentTeam.Valid() {
		if err := set("currentTeam", string(u.CurrentTeam)); err != nil {
			return "", nil, nil, err
		}
	}
	if u.RedRemaining != nil {
		if err := set("redRemaining", *u.RedRemaining); err != nil {
			return "", nil, nil, err
		}
	}
	if u.BlueRemaining != nil {
		if err := set("blueRemaining", *u.BlueRemaining); err != nil {
			return "", nil, nil, err
		}
	}

	switch {
	case u.ClearWinner:
		remove("winner")
	case u.Winner != nil:
		if err := set("winner", string(*u.Winner)); err != nil {
			return "", nil, nil, err
		}
	}

	switch {
	case u.ClearClue:
		remove("currentClue")
	case u.Clue != nil:
		if err := set("currentClue", u.Clue); err != nil {
			return "", nil, nil, err
		}
	}

	switch {
	case u.ClearSpymaster:
		remove("spymasterId")
	case u.SpymasterID != "":
		if err := set("spymasterId", u.SpymasterID); err != nil {
			return "", nil, nil, err
		}
	}

	var parts []string
	if len(sets) > 0 {
		parts = append(parts, "SET "+strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		parts = append(parts, "REMOVE "+strings.Join(removes, ", "))
	}
	return strings.Join(parts, " "), names, values, nil
}

// Watch polls the record and invokes fn whenever it changes, starting with
// the current value. Delivery lags writes by up to the poll interval.
func (s *Store) Watch(ctx context.Context, id codewords.GameID, fn func(*codewords.Game)) (func(), error) {
	watchCtx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(s.pollEvery)
		defer ticker.Stop()

		var last *codewords.Game
		poll := func() {
			g, err := s.Game(watchCtx, id)
			if err != nil {
				return
			}
			if last != nil && reflect.DeepEqual(last, g) {
				return
			}
			last = g
			fn(g)
		}

		poll()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				poll()
			}
		}
	}()

	return cancel, nil
}
