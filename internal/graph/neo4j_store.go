package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/rachitv/framl/backend/internal/domain"
)

// NewNeo4jStore establishes a Bolt connection using the official Neo4j driver.
// Any openCypher endpoint that speaks Bolt (Neo4j, Memgraph, Neptune) works
// with the same driver.
func NewNeo4jStore(ctx context.Context, opts Options) (Store, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	return &neo4jStore{
		driver:   driver,
		database: opts.Database,
	}, nil
}

type neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

type record map[string]any

func (s *neo4jStore) run(ctx context.Context, mode neo4j.AccessMode, cypher string, params map[string]any) ([]record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   mode,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	var records []record
	for res.Next(ctx) {
		rec := res.Record()
		row := make(record, len(rec.Keys))
		for _, key := range rec.Keys {
			value, _ := rec.Get(key)
			row[key] = value
		}
		records = append(records, row)
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *neo4jStore) write(ctx context.Context, cypher string, params map[string]any) error {
	_, err := s.run(ctx, neo4j.AccessModeWrite, cypher, params)
	return err
}

func (s *neo4jStore) UpsertUser(ctx context.Context, user domain.User) error {
	return s.UpsertUsers(ctx, []domain.User{user})
}

func (s *neo4jStore) UpsertUsers(ctx context.Context, users []domain.User) error {
	if len(users) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(users))
	for _, u := range users {
		rows = append(rows, userProps(u))
	}
	if err := s.write(ctx, upsertUsersCypher, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("upsert users: %w", err)
	}
	return nil
}

func (s *neo4jStore) UpsertTransaction(ctx context.Context, tx domain.Transaction) error {
	return s.UpsertTransactions(ctx, []domain.Transaction{tx})
}

func (s *neo4jStore) UpsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, transactionProps(tx))
	}
	if err := s.write(ctx, upsertTransactionsCypher, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("upsert transactions: %w", err)
	}
	return nil
}

func (s *neo4jStore) MergeEdges(ctx context.Context, edges []domain.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	pairsByType := make(map[domain.EdgeType][]map[string]any)
	for _, e := range edges {
		if !domain.KnownEdgeType(e.Type) {
			return fmt.Errorf("%w: unknown edge type %q", domain.ErrValidation, e.Type)
		}
		if e.From == e.To {
			return fmt.Errorf("%w: self edge on %q", domain.ErrValidation, e.From)
		}
		pairsByType[e.Type] = append(pairsByType[e.Type], map[string]any{
			"from":  e.From,
			"to":    e.To,
			"tx_id": e.TxID,
		})
	}

	for edgeType, pairs := range pairsByType {
		if err := s.write(ctx, mergeEdgesCypher(edgeType), map[string]any{"pairs": pairs}); err != nil {
			return fmt.Errorf("merge %s edges: %w", edgeType, err)
		}
	}
	return nil
}

// mergeEdgesCypher builds the batched MERGE statement for one edge type. The
// relationship type is interpolated, so it must come from the closed EdgeType
// set, never from caller input. Endpoints are MATCHed, not MERGEd: an edge
// referencing an unknown node is silently skipped.
func mergeEdgesCypher(t domain.EdgeType) string {
	switch t {
	case domain.EdgeSent:
		return `
UNWIND $pairs AS p
MATCH (a:User {id: p.from})
MATCH (b:User {id: p.to})
MERGE (a)-[:SENT {tx_id: p.tx_id}]->(b)
`
	case domain.EdgeInitiated, domain.EdgeReceived:
		return fmt.Sprintf(`
UNWIND $pairs AS p
MATCH (a:User {id: p.from})
MATCH (b:Transaction {id: p.to})
MERGE (a)-[:%s]->(b)
`, t)
	case domain.EdgeSameIP, domain.EdgeSameDevice:
		return fmt.Sprintf(`
UNWIND $pairs AS p
MATCH (a:Transaction {id: p.from})
MATCH (b:Transaction {id: p.to})
MERGE (a)-[:%s]->(b)
`, t)
	default:
		return fmt.Sprintf(`
UNWIND $pairs AS p
MATCH (a:User {id: p.from})
MATCH (b:User {id: p.to})
MERGE (a)-[:%s]->(b)
`, t)
	}
}

func (s *neo4jStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	records, err := s.run(ctx, neo4j.AccessModeRead, getUserCypher, map[string]any{"id": id})
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	if len(records) == 0 {
		return domain.User{}, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return userFromProps(asPropMap(records[0]["props"])), nil
}

func (s *neo4jStore) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	records, err := s.run(ctx, neo4j.AccessModeRead, getTransactionCypher, map[string]any{"id": id})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	if len(records) == 0 {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return transactionFromProps(asPropMap(records[0]["props"])), nil
}

func (s *neo4jStore) ListUsers(ctx context.Context, opts ListUsersOptions) ([]domain.User, int64, error) {
	limit, skip := normalizePage(opts.Limit, opts.Skip)
	params := map[string]any{
		"search": lower(opts.Search),
		"skip":   skip,
		"limit":  limit,
	}

	records, err := s.run(ctx, neo4j.AccessModeRead, listUsersCypher, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(records))
	for _, rec := range records {
		users = append(users, userFromProps(asPropMap(rec["props"])))
	}

	total, err := s.count(ctx, countUsersCypher, params)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

func (s *neo4jStore) ListTransactions(ctx context.Context, opts ListTransactionsOptions) ([]domain.Transaction, int64, error) {
	limit, skip := normalizePage(opts.Limit, opts.Skip)
	minAmount := -1.0
	if opts.MinAmount != nil {
		minAmount = *opts.MinAmount
	}
	maxAmount := -1.0
	if opts.MaxAmount != nil {
		maxAmount = *opts.MaxAmount
	}
	params := map[string]any{
		"search":    lower(opts.Search),
		"status":    opts.Status,
		"minAmount": minAmount,
		"maxAmount": maxAmount,
		"skip":      skip,
		"limit":     limit,
	}

	query := fmt.Sprintf(listTransactionsCypherTemplate, txOrderClause(opts.SortField, opts.Ascending))
	records, err := s.run(ctx, neo4j.AccessModeRead, query, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]domain.Transaction, 0, len(records))
	for _, rec := range records {
		txs = append(txs, transactionFromProps(asPropMap(rec["props"])))
	}

	total, err := s.count(ctx, countTransactionsCypher, params)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	return txs, total, nil
}

// txOrderClause maps an allow-listed sort field onto a concrete property
// reference. Anything outside the enumeration falls back to the timestamp.
func txOrderClause(field TxSortField, ascending bool) string {
	prop := "t.timestamp"
	switch field {
	case TxSortAmount:
		prop = "t.amount"
	case TxSortRiskScore:
		prop = "t.risk_score"
	case TxSortStatus:
		prop = "t.status"
	case TxSortID:
		prop = "t.id"
	}
	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	return prop + " " + dir
}

func (s *neo4jStore) Neighbors(ctx context.Context, id string, dir Direction, types []domain.EdgeType) ([]Neighbor, error) {
	typeNames := make([]string, 0, len(types))
	for _, t := range types {
		typeNames = append(typeNames, string(t))
	}
	query := outNeighborsCypher
	if dir == DirectionIn {
		query = inNeighborsCypher
	}

	records, err := s.run(ctx, neo4j.AccessModeRead, query, map[string]any{
		"id":    id,
		"types": typeNames,
	})
	if err != nil {
		return nil, fmt.Errorf("neighbors of %s: %w", id, err)
	}

	neighbors := make([]Neighbor, 0, len(records))
	for _, rec := range records {
		edgeType := domain.EdgeType(toString(rec["relType"]))
		if !domain.KnownEdgeType(edgeType) {
			continue
		}
		n := Neighbor{EdgeType: edgeType, Direction: dir}
		props := asPropMap(rec["props"])
		if hasLabel(rec["labels"], "User") {
			u := userFromProps(props)
			n.User = &u
		} else if hasLabel(rec["labels"], "Transaction") {
			tx := transactionFromProps(props)
			n.Transaction = &tx
		} else {
			continue
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, nil
}

func (s *neo4jStore) ShortestPath(ctx context.Context, sourceID, targetID string) (domain.Path, error) {
	records, err := s.run(ctx, neo4j.AccessModeRead, shortestPathCypher, map[string]any{
		"sourceId": sourceID,
		"targetId": targetID,
	})
	if err != nil {
		return domain.Path{}, fmt.Errorf("shortest path query: %w", err)
	}
	if len(records) == 0 {
		return domain.Path{}, fmt.Errorf("%s -> %s: %w", sourceID, targetID, domain.ErrNoPath)
	}

	rec := records[0]
	path := domain.Path{
		SourceUserID: sourceID,
		TargetUserID: targetID,
	}
	if ids, ok := rec["pathIds"].([]any); ok {
		for _, raw := range ids {
			path.NodeIDs = append(path.NodeIDs, toString(raw))
		}
	}
	path.Hops = int(toInt64(rec["hops"]))
	return path, nil
}

func (s *neo4jStore) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	queries := []struct {
		cypher string
		dest   *int64
	}{
		{`MATCH (u:User) RETURN count(u) AS c`, &stats.Users},
		{`MATCH (t:Transaction) RETURN count(t) AS c`, &stats.Transactions},
		{`MATCH (t:Transaction {status: "flagged"}) RETURN count(t) AS c`, &stats.Flagged},
		{`MATCH (t:Transaction {status: "review"}) RETURN count(t) AS c`, &stats.Review},
		{`MATCH (t:Transaction {status: "clear"}) RETURN count(t) AS c`, &stats.Clear},
	}
	for _, q := range queries {
		total, err := s.count(ctx, q.cypher, nil)
		if err != nil {
			return domain.Stats{}, fmt.Errorf("stats query: %w", err)
		}
		*q.dest = total
	}
	return stats, nil
}

func (s *neo4jStore) ExportUsers(ctx context.Context) ([]domain.User, error) {
	records, err := s.run(ctx, neo4j.AccessModeRead, exportUsersCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}
	users := make([]domain.User, 0, len(records))
	for _, rec := range records {
		users = append(users, userFromProps(asPropMap(rec["props"])))
	}
	return users, nil
}

func (s *neo4jStore) ExportTransactions(ctx context.Context) ([]domain.Transaction, error) {
	records, err := s.run(ctx, neo4j.AccessModeRead, exportTransactionsCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("export transactions: %w", err)
	}
	txs := make([]domain.Transaction, 0, len(records))
	for _, rec := range records {
		txs = append(txs, transactionFromProps(asPropMap(rec["props"])))
	}
	return txs, nil
}

func (s *neo4jStore) EnsureIndexes(ctx context.Context) error {
	statements := []string{
		`CREATE INDEX user_id IF NOT EXISTS FOR (u:User) ON (u.id)`,
		`CREATE INDEX user_email IF NOT EXISTS FOR (u:User) ON (u.email)`,
		`CREATE INDEX user_phone IF NOT EXISTS FOR (u:User) ON (u.phone)`,
		`CREATE INDEX user_address IF NOT EXISTS FOR (u:User) ON (u.address)`,
		`CREATE INDEX user_payment IF NOT EXISTS FOR (u:User) ON (u.payment_method)`,
		`CREATE INDEX tx_id IF NOT EXISTS FOR (t:Transaction) ON (t.id)`,
		`CREATE INDEX tx_ip IF NOT EXISTS FOR (t:Transaction) ON (t.ip_address)`,
		`CREATE INDEX tx_device IF NOT EXISTS FOR (t:Transaction) ON (t.device_id)`,
	}
	for _, stmt := range statements {
		if err := s.write(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}
	return nil
}

func (s *neo4jStore) VerifyConnectivity(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *neo4jStore) count(ctx context.Context, cypher string, params map[string]any) (int64, error) {
	records, err := s.run(ctx, neo4j.AccessModeRead, cypher, params)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return toInt64(records[0]["c"]), nil
}

// --- property conversion ---

func userProps(u domain.User) map[string]any {
	return map[string]any{
		"id":             u.ID,
		"name":           u.Name,
		"email":          u.Email,
		"phone":          u.Phone,
		"address":        u.Address,
		"payment_method": u.PaymentMethod,
	}
}

func transactionProps(tx domain.Transaction) map[string]any {
	return map[string]any{
		"id":          tx.ID,
		"sender_id":   tx.SenderID,
		"receiver_id": tx.ReceiverID,
		"amount":      tx.Amount,
		"currency":    tx.Currency,
		"timestamp":   formatTime(tx.Timestamp),
		"ip_address":  tx.IPAddress,
		"device_id":   tx.DeviceID,
		"status":      tx.Status,
		"risk_score":  tx.RiskScore,
	}
}

func userFromProps(props map[string]any) domain.User {
	return domain.User{
		ID:            toString(props["id"]),
		Name:          toString(props["name"]),
		Email:         toString(props["email"]),
		Phone:         toString(props["phone"]),
		Address:       toString(props["address"]),
		PaymentMethod: toString(props["payment_method"]),
	}
}

func transactionFromProps(props map[string]any) domain.Transaction {
	return domain.Transaction{
		ID:         toString(props["id"]),
		SenderID:   toString(props["sender_id"]),
		ReceiverID: toString(props["receiver_id"]),
		Amount:     toFloat64(props["amount"]),
		Currency:   toString(props["currency"]),
		Timestamp:  parseTime(toString(props["timestamp"])),
		IPAddress:  toString(props["ip_address"]),
		DeviceID:   toString(props["device_id"]),
		Status:     toString(props["status"]),
		RiskScore:  toFloat64(props["risk_score"]),
	}
}

func asPropMap(val any) map[string]any {
	if m, ok := val.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func hasLabel(val any, label string) bool {
	labels, ok := val.([]any)
	if !ok {
		return false
	}
	for _, l := range labels {
		if toString(l) == label {
			return true
		}
	}
	return false
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Timestamps are stored as RFC3339 UTC strings so lexicographic ordering in
// the database matches chronological ordering.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return parsed
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		return parsed
	}
	return time.Time{}
}

func normalizePage(limit, skip int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if skip < 0 {
		skip = 0
	}
	return limit, skip
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// --- cypher ---

const upsertUsersCypher = `
UNWIND $rows AS row
MERGE (u:User {id: row.id})
SET u.name = row.name,
    u.email = row.email,
    u.phone = row.phone,
    u.address = row.address,
    u.payment_method = row.payment_method
`

const upsertTransactionsCypher = `
UNWIND $rows AS row
MERGE (t:Transaction {id: row.id})
SET t.sender_id = row.sender_id,
    t.receiver_id = row.receiver_id,
    t.amount = row.amount,
    t.currency = row.currency,
    t.timestamp = row.timestamp,
    t.ip_address = row.ip_address,
    t.device_id = row.device_id,
    t.status = row.status,
    t.risk_score = row.risk_score
`

const getUserCypher = `
MATCH (u:User {id: $id})
RETURN properties(u) AS props
`

const getTransactionCypher = `
MATCH (t:Transaction {id: $id})
RETURN properties(t) AS props
`

const userSearchClause = `
WHERE $search = ""
   OR toLower(u.id) CONTAINS $search
   OR toLower(u.name) CONTAINS $search
   OR toLower(u.email) CONTAINS $search
   OR toLower(u.phone) CONTAINS $search
`

const listUsersCypher = `
MATCH (u:User)` + userSearchClause + `
RETURN properties(u) AS props
ORDER BY u.id
SKIP $skip LIMIT $limit
`

const countUsersCypher = `
MATCH (u:User)` + userSearchClause + `
RETURN count(u) AS c
`

const transactionFilterClause = `
WHERE ($search = ""
   OR toLower(t.id) CONTAINS $search
   OR toLower(t.sender_id) CONTAINS $search
   OR toLower(t.receiver_id) CONTAINS $search)
  AND ($status = "" OR t.status = $status)
  AND ($minAmount < 0 OR t.amount >= $minAmount)
  AND ($maxAmount < 0 OR t.amount <= $maxAmount)
`

const listTransactionsCypherTemplate = `
MATCH (t:Transaction)` + transactionFilterClause + `
RETURN properties(t) AS props
ORDER BY %s
SKIP $skip LIMIT $limit
`

const countTransactionsCypher = `
MATCH (t:Transaction)` + transactionFilterClause + `
RETURN count(t) AS c
`

const outNeighborsCypher = `
MATCH (n {id: $id})-[r]->(m)
WHERE type(r) IN $types
RETURN type(r) AS relType,
       labels(m) AS labels,
       properties(m) AS props
`

const inNeighborsCypher = `
MATCH (m)-[r]->(n {id: $id})
WHERE type(r) IN $types
RETURN type(r) AS relType,
       labels(m) AS labels,
       properties(m) AS props
`

const shortestPathCypher = `
MATCH path = shortestPath(
    (a:User {id: $sourceId})-[*]-(b:User {id: $targetId})
)
RETURN [n IN nodes(path) | n.id] AS pathIds,
       length(path) AS hops
`

const exportUsersCypher = `
MATCH (u:User)
RETURN properties(u) AS props
ORDER BY u.id
`

const exportTransactionsCypher = `
MATCH (t:Transaction)
RETURN properties(t) AS props
ORDER BY t.timestamp DESC
`
